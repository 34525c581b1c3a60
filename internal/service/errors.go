package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrAccountNotFound    = errors.New("account not found")
	ErrMailDisabled       = errors.New("email service disabled")
)
