// Package slx holds metadata shared by the solstice commands.
package slx

const Version = "0.1.0"
