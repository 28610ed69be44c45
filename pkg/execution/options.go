package execution

import (
	"github.com/peter-kozarec/solstice/pkg/utility/fixed"
)

type Option func(*Simulator)

func WithSlippageBps(slippageBps fixed.Point) Option {
	return func(s *Simulator) {
		s.slippageBps = slippageBps
	}
}

func WithFeePerShare(feePerShare fixed.Point) Option {
	return func(s *Simulator) {
		s.feePerShare = feePerShare
	}
}

func WithPriceDigits(digits int) Option {
	return func(s *Simulator) {
		s.priceDigits = digits
	}
}
