package slm

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid SLM magic")
	ErrUnsupportedMajor = errors.New("unsupported SLM major version")
	ErrCorruptModel     = errors.New("corrupt SLM file")
)
