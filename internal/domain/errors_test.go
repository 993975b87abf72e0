package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Strob0t/ContentForge/internal/domain"
)

func TestDetailErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("delete: %w", &domain.DetailError{
		Err:     domain.ErrConflict,
		Message: "linked to aliases",
		Data:    map[string]any{"aliases": []string{"X"}},
	})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatal("expected errors.Is to find ErrConflict")
	}
	var de *domain.DetailError
	if !errors.As(err, &de) {
		t.Fatal("expected errors.As to find DetailError")
	}
	if de.Error() != "linked to aliases" {
		t.Errorf("unexpected message %q", de.Error())
	}
}
