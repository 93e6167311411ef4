package demo

import "errors"

var (
	errShortNum    = errors.New("demo: short Num payload")
	errShortIntent = errors.New("demo: short Intent payload")
	errShortFist   = errors.New("demo: short Fist payload")
)
