// Package services holds the application use-cases behind the HTTP layer:
// Telegram callback actions (mute, explain) and the inbox presentation
// operations (list, hide, favorite, mute management).
//
// This file centralizes the service-level error values. Translation into
// HTTP status codes happens in the handlers package.
package services

import "errors"

var (
	// ErrSignalNotFound indicates that no stored signal has the requested id.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrInvalidSource is returned for a source name outside the known kinds.
	ErrInvalidSource = errors.New("unknown source")

	// ErrNotHidden is returned when unhiding a signal that is not hidden.
	ErrNotHidden = errors.New("signal is not hidden")

	// ErrNotFavorite is returned when removing a favorite that does not exist.
	ErrNotFavorite = errors.New("signal is not a favorite")

	// ErrNotMuted is returned when restoring a source that is not muted.
	ErrNotMuted = errors.New("source is not muted")
)
