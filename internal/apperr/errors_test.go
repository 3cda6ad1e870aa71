package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("create: %w", &ValidationError{Field: "referenceName", Message: "cannot be blank"})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("validation error should not match ErrNotFound")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "referenceName" {
		t.Fatalf("As: %+v", ve)
	}
	if got := ve.Error(); got != "referenceName: cannot be blank" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIOErrorUnwraps(t *testing.T) {
	err := &IOError{Op: "write", Path: "/x/data.json", Err: os.ErrPermission}
	if !errors.Is(err, ErrIO) {
		t.Error("expected ErrIO")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("expected cause to unwrap")
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound")
	}
	if err.Error() != `reference "abc": not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}
