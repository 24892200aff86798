package errs

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestIsComparesByCode(t *testing.T) {
	derived := ErrForbidden.WithDetail("probe")
	if !ErrForbidden.Is(derived) {
		t.Fatal("derived error should match by code")
	}
	wrapped := errors.Wrap(derived, "outer")
	if !ErrForbidden.Is(wrapped) {
		t.Fatal("wrapped error should match by code")
	}
	if ErrForbidden.Is(ErrNotFound) {
		t.Fatal("distinct codes should not match")
	}
	if ErrForbidden.Is(errors.New("plain")) {
		t.Fatal("non-CodeError should not match")
	}
}

func TestWithDetailDoesNotMutate(t *testing.T) {
	d := ErrNotFound.WithDetail("conversation c1")
	if ErrNotFound.Detail != "" {
		t.Fatal("base error mutated")
	}
	if d.Code != NotFoundCode {
		t.Fatalf("code = %d", d.Code)
	}
	d2 := d.WithDetail("second")
	if d2.Detail != "conversation c1, second" {
		t.Fatalf("detail = %q", d2.Detail)
	}
}

func TestCodeExtraction(t *testing.T) {
	if Code(ErrStorageUnavailable.WrapMsg("postgres", "err", "down")) != StorageUnavailableCode {
		t.Fatal("wrapped code lost")
	}
	if Code(errors.New("plain")) != UnknownCode {
		t.Fatal("plain error should map to unknown code")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrInvalidParticipants, http.StatusBadRequest},
		{ErrEmptyContent, http.StatusBadRequest},
		{NewCodeError(UsernameTakenCode, "taken"), http.StatusConflict},
		{ErrUnknownUser, http.StatusNotFound},
		{ErrNotFound, http.StatusNotFound},
		{ErrStorageUnavailable, http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
