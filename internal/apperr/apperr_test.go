package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructorsWrapKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		code string
	}{
		{"validation", Validation("task_id is required"), ErrValidation, "validation"},
		{"not found", NotFound("completion", 7), ErrNotFound, "not_found"},
		{"permission", Permission("verify_completions"), ErrPermission, "permission"},
		{"conflict", Conflict("completion %d is rejected", 3), ErrConflict, "conflict"},
		{"insufficient", fmt.Errorf("redeem: %w", ErrInsufficientPoints), ErrInsufficientPoints, "insufficient_points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("complete task: %w", NotFound("task", 1))
	if Code(err) != "not_found" {
		t.Errorf("Code = %q, want not_found", Code(err))
	}
}

func TestCodeUnknown(t *testing.T) {
	if got := Code(errors.New("disk full")); got != "internal" {
		t.Errorf("Code = %q, want internal", got)
	}
}

func TestMessages(t *testing.T) {
	if got := NotFound("task", 42).Error(); got != "not found: task 42" {
		t.Errorf("message = %q", got)
	}
	if got := Validation("points must be >= 0").Error(); got != "validation error: points must be >= 0" {
		t.Errorf("message = %q", got)
	}
}
