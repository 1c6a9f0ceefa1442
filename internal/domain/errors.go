package domain

import "errors"

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchNotLive  = errors.New("match is not live")
)
