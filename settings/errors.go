package settings

import "errors"

var (
	// ErrInvalidSettings wraps every validation failure returned by Load.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrWatchCallbackRequired is returned by Watch when fn is nil.
	ErrWatchCallbackRequired = errors.New("watch callback required")
)
