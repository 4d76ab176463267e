package autosave

import (
	"errors"

	"github.com/mithrel/docgen/internal/remote"
)

// Level is the severity of a Notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient user-facing message.
type Notification struct {
	Level Level
	Text  string
}

// failureText renders an error for the user. Server supplied messages are
// shown verbatim; bare transport failures get a connection hint.
func failureText(prefix string, err error) string {
	var ae *remote.ApplicationError
	if errors.As(err, &ae) {
		msg := ae.Message
		if msg == "" {
			msg = "unknown error"
		}
		return prefix + ": " + msg
	}
	var ne *remote.NetworkError
	if errors.As(err, &ne) && ne.Status != 0 && ne.Message != "" {
		return prefix + ": " + ne.Message
	}
	if errors.As(err, &ne) {
		return prefix + ". Check your connection and try again."
	}
	return prefix + ": " + err.Error()
}
