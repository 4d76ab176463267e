package remote

import (
	"errors"
	"fmt"
)

// NetworkError is a transport failure or a non-2xx reply.
// Status is 0 when no response was received.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ApplicationError is a 2xx reply that reports success=false.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return e.Op + ": request rejected"
	}
	return e.Op + ": " + e.Message
}

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsApplication reports whether err carries an ApplicationError.
func IsApplication(err error) bool {
	var ae *ApplicationError
	return errors.As(err, &ae)
}

// Message extracts the server supplied text from either error kind.
func Message(err error) string {
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Message != "" {
		return ne.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrUnsupportedArchive is returned before upload for a bad file extension.
var ErrUnsupportedArchive = errors.New("unsupported file type; use .zip, .tar.gz or .tgz")

// ErrTooLarge is returned before upload when the archive exceeds the limit.
var ErrTooLarge = errors.New("archive exceeds upload limit")
