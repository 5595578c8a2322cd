package auth

import (
	"errors"
	"log"
)

// replyErrors are the errors callers can tell apart. Anything else reaches
// them as plain text.
var replyErrors = []error{
	ErrInvalidCredentials,
	ErrExpiredToken,
	ErrInvalidToken,
	ErrUserExists,
	ErrUserNotFound,
	ErrMissingFields,
	ErrInvalidEmail,
	ErrWeakPassword,
	ErrPasswordTooLong,
}

// replyError returns the text carried in a reply's error field. Known errors
// are reduced to their sentinel text so remoteError can restore them.
// The request-reply transport drops handler errors, so every failure is
// answered in the reply body.
func replyError(service string, err error) string {
	for _, known := range replyErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	log.Printf("[auth] %s failed: %v", service, err)
	return err.Error()
}

// remoteError turns a reply's error field back into an error.
func remoteError(msg string) error {
	for _, known := range replyErrors {
		if msg == known.Error() {
			return known
		}
	}
	return errors.New(msg)
}
