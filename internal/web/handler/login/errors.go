package login

import "errors"

var (
	// ErrInvalidPayload is returned when the submitted login payload cannot be
	// parsed or fails validation.
	ErrInvalidPayload = errors.New("invalid login payload")

	// ErrInvalidCredentials is returned when the provided username and/or
	// password are not valid.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is returned when the account exists but is inactive.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrInternalServerError is returned for unexpected failures during the
	// login process.
	ErrInternalServerError = errors.New("internal server error")
)
