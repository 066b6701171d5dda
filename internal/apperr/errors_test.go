package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{NotFound("episode %s", "e1"), "not_found"},
		{New(ErrAmbiguousState, "two metadata files"), "ambiguous_state"},
		{Corrupt(errors.New("bad json"), "read %s", "x.mvle"), "corrupt_data"},
		{Validation("missing content"), "validation"},
		{IO(os.ErrPermission, "write %s", "x"), "io"},
		{fmt.Errorf("outer: %w", ErrConflict), "conflict"},
		{ErrAlreadyExists, "already_exists"},
		{errors.New("boom"), "internal"},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := IO(os.ErrNotExist, "read %s", "/tmp/x")
	if !errors.Is(err, ErrIO) {
		t.Error("expected ErrIO")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected cause to be reachable")
	}
	if got := err.Error(); got != "read /tmp/x: "+os.ErrNotExist.Error() {
		t.Errorf("message = %q", got)
	}
}
