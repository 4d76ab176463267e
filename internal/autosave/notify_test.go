package autosave

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mithrel/docgen/internal/remote"
)

func TestFailureText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&remote.ApplicationError{Op: "save", Message: "invalid field"}, "Error saving: invalid field"},
		{&remote.ApplicationError{Op: "save"}, "Error saving: unknown error"},
		{fmt.Errorf("wrap: %w", &remote.NetworkError{Op: "save", Status: 400, Message: "Sessão expirada"}), "Error saving: Sessão expirada"},
		{&remote.NetworkError{Op: "save", Err: context.DeadlineExceeded}, "Error saving. Check your connection and try again."},
		{errors.New("boom"), "Error saving: boom"},
	}
	for _, c := range cases {
		if got := failureText("Error saving", c.err); got != c.want {
			t.Fatalf("failureText(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "error" || LevelInfo.String() != "info" {
		t.Fatalf("unexpected level names")
	}
}
