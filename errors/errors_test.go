package errors

import (
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	err := New(ErrCodeManifestMissing, "no manifest")
	if err.Code != ErrCodeManifestMissing {
		t.Errorf("expected code %s, got %s", ErrCodeManifestMissing, err.Code)
	}

	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeManifestMissing) {
		t.Error("Is should return false for non-matching code")
	}

	detailed := err.WithDetail("manifest", "run_metadata.json").WithDetail("count", 2)
	if detailed.Details["manifest"] != "run_metadata.json" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("resolving batch: %w", ManifestIncomplete("date"))
	if !Is(err, ErrCodeManifestIncomplete) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if GetCode(err) != ErrCodeManifestIncomplete {
		t.Errorf("GetCode = %s", GetCode(err))
	}
	e, ok := As(err)
	if !ok || e.Detail("field") != "date" {
		t.Errorf("As returned %v, %v", e, ok)
	}
	if Is(nil, "") {
		t.Error("Is(nil) should be false")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := ManifestIncomplete("furnace_setpoint")
	if err.Code != ErrCodeManifestIncomplete {
		t.Errorf("expected code %s, got %s", ErrCodeManifestIncomplete, err.Code)
	}
	if err.Details["field"] != "furnace_setpoint" {
		t.Error("ManifestIncomplete should include field detail")
	}

	err = StructureUnrecognized("run", "01.15/misc/run_metadata.json")
	if err.Detail("which") != "run" {
		t.Error("StructureUnrecognized should include which detail")
	}

	err = CommandFailed("push", 128, "fatal: no remote\n")
	if err.Details["exitCode"] != 128 {
		t.Error("CommandFailed should include exit code")
	}
	if err.Detail("stage") != "push" {
		t.Error("CommandFailed should include stage")
	}
	if err.Message != "push failed with exit code 128: fatal: no remote" {
		t.Errorf("unexpected message %q", err.Message)
	}
}
