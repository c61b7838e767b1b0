package model

import "errors"

var (
	// ErrImageNotFound is returned when the image path does not resolve to a file.
	ErrImageNotFound = errors.New("image not found")
	// ErrImageUnreadable is returned when the file cannot be decoded as an image.
	ErrImageUnreadable = errors.New("image unreadable")
	// ErrModelInvocationFailed is returned when the model cannot produce scores.
	ErrModelInvocationFailed = errors.New("model invocation failed")
	// ErrStoreUnavailable is returned when the history database cannot be opened or written.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrInvalidArgument is returned for malformed query arguments, such as a missing year.
	ErrInvalidArgument = errors.New("invalid argument")
)
