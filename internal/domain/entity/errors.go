package entity

import "errors"

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectAccess   = errors.New("object access denied")

	ErrJobNotFound = errors.New("job not found")

	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
