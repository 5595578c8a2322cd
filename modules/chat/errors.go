package chat

import (
	"errors"
	"log"
)

// replyErrors are the errors the gateway tells apart, most specific first.
var replyErrors = []error{
	ErrNotMember,
	ErrNotAdmin,
	ErrRemoveNotAllowed,
	ErrForbidden,
	ErrMissingFields,
	ErrSelfChat,
	ErrGroupTooSmall,
	ErrChatNotFound,
	ErrUserNotFound,
	ErrNotGroupChat,
	ErrChatNameTooLong,
	ErrMessageTooLong,
	ErrMessageInvalid,
}

// replyError returns the text carried in a reply's error field. Handler
// errors never reach the caller over request-reply, so failures travel in
// the reply body.
func replyError(service string, err error) string {
	for _, known := range replyErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	log.Printf("[chat] %s failed: %v", service, err)
	return err.Error()
}

// remoteError restores the sentinel named by a reply's error field.
func remoteError(msg string) error {
	for _, known := range replyErrors {
		if msg == known.Error() {
			return known
		}
	}
	return errors.New(msg)
}
