package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already registered")
	ErrNotEnrolled         = errors.New("user has no biometric template enrolled")
	ErrNotPaired           = errors.New("user has no paired device")
	ErrInvalidToken        = errors.New("invalid or expired pairing token")
	ErrDeviceNotRegistered = errors.New("device not registered for this user")
	ErrInvalidCode         = errors.New("invalid code")
)
