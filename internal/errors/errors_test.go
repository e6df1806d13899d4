package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorFormat(t *testing.T) {
	err := New(ErrNotFound, "person missing")
	if got, want := err.Error(), "[NOT_FOUND] person missing"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := Wrap(ErrDatabase, "saving person", stderrors.New("disk full"))
	if got, want := wrapped.Error(), "[DATABASE_ERROR] saving person: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Newf(ErrFetchFailed, "status %d", 502)
	if !Is(err, ErrFetchFailed) {
		t.Error("Is() = false for direct code")
	}
	if Is(err, ErrSyncConflict) {
		t.Error("Is() = true for wrong code")
	}
	if Is(nil, ErrFetchFailed) {
		t.Error("Is(nil) = true")
	}
}

func TestIsUnwrapsNestedErrors(t *testing.T) {
	inner := New(ErrConstraint, "unique violation")
	outer := fmt.Errorf("saving record: %w", Wrap(ErrDatabase, "save failed", inner))

	if !Is(outer, ErrDatabase) {
		t.Error("Is() missed outer code through fmt wrapper")
	}
	if !Is(outer, ErrConstraint) {
		t.Error("Is() missed inner code through AppError chain")
	}
	if Is(outer, ErrNotFound) {
		t.Error("Is() = true for absent code")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrInternal, "wrapped", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is() does not see the cause")
	}
}
