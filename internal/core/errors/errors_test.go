package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("convert: %w", New(CodeUnresolved, "missing"))
		if !IsCode(err, CodeUnresolved) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeUnresolved, "namespace not registered"), CtxNamespace, "goog.events")
		if !strings.Contains(err.Error(), "goog.events") {
			t.Errorf("expected context in message, got %s", err.Error())
		}
		plain := AddContext(errors.New("boom"), CtxPath, "a.js")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to be wrapped as internal")
		}
	})

	t.Run("IsFatal", func(t *testing.T) {
		for _, code := range []ErrorCode{CodeConfiguration, CodeUnresolved, CodeUnknownShape} {
			if !IsFatal(New(code, "x")) {
				t.Errorf("expected %s to be fatal", code)
			}
		}
		if IsFatal(New(CodeValidationError, "x")) {
			t.Error("validation errors are not part of the fatal taxonomy")
		}
	})
}
