package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not permitted")

	// Activation code / session lifecycle
	ErrCodeNotFound        = errors.New("activation code not found")
	ErrCodeAlreadyUsed     = errors.New("activation code already used")
	ErrCodeExpired         = errors.New("activation code expired")
	ErrSessionInvalid      = errors.New("activation session invalid")
	ErrSessionExpired      = errors.New("activation session expired")
	ErrGenerationExhausted = errors.New("activation code generation exhausted")

	// Registration validation
	ErrUsernameInvalid  = errors.New("username must be 3-32 alphanumeric or underscore characters")
	ErrPasswordTooShort = errors.New("password too short")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailTaken       = errors.New("email already taken")

	// SMS OTP lifecycle
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrUserDisabled    = errors.New("account disabled")
	ErrInvalidOTP      = errors.New("verification code invalid")
	ErrOTPExpired      = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrRateLimited     = errors.New("too many requests")
	ErrSMSDispatch     = errors.New("sms dispatch failed")

	// Playback ticket issuance
	ErrMissingFileID = errors.New("file id is required")

	// Operator-fixable configuration problems
	ErrMisconfigured = errors.New("dependency not configured")

	// Infrastructure errors
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
