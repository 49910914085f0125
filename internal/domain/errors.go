package domain

import "errors"

var (
	// ErrUnauthorized is returned when the bearer token is missing, malformed or expired
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMeasurementNotFound is returned when a soil measurement does not exist or belongs to another user
	ErrMeasurementNotFound = errors.New("soil data not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUserExists is returned when registering an email that is already taken
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when email and password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
