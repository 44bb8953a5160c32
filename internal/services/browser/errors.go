package browser

import "errors"

var (
	// ErrDomainNotAllowed - navigation target is outside the configured allow-list.
	// Checked before any network request is made.
	ErrDomainNotAllowed = errors.New("domain not in allow-list")

	// ErrSessionClosed - the controller was closed; a new one must be created
	ErrSessionClosed = errors.New("browser session closed")
)
