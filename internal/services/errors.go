package services

import "errors"

// Data service errors
var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrInvalidInput     = errors.New("invalid input")
)
