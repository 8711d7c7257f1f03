package telegram

import "errors"

var (
	// ErrUnauthorized is returned when the Bot API rejects the token.
	ErrUnauthorized = errors.New("telegram: unauthorized")
	// ErrFileUnavailable is returned when Telegram has no downloadable path for a file.
	ErrFileUnavailable = errors.New("telegram: file not available for download")
)
