package service

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrEncryptionFailed = errors.New("device key encryption failed")
)
