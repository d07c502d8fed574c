package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseWorld,
				Kind:   KindNotFound,
				Path:   "images/logo.png",
				Detail: "referenced from main.typ",
			},
			contains: []string{"[world]", "not_found", "images/logo.png", "referenced from main.typ"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseStore,
				Kind:  KindAccessDenied,
			},
			contains: []string{"[store]", "access_denied"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRender,
				Kind:   KindSerialization,
				Detail: "encode pdf",
				Cause:  errors.New("font has no cmap"),
			},
			contains: []string{"[render]", "serialization", "encode pdf", "caused by", "font has no cmap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseStore,
		Kind:  KindNotFound,
		Path:  "a.typ",
	}

	if !err.Is(&Error{Phase: PhaseStore, Kind: KindNotFound}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseWorld, Kind: KindNotFound}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseStore, Kind: KindNotSource}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseStore, Kind: KindNotFound}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestIsKind(t *testing.T) {
	inner := NotSource(PhaseStore, "logo.png")
	outer := Wrap(PhaseWorld, KindInvalidData, inner, "lookup")
	wrapped := fmt.Errorf("compile: %w", outer)

	if !IsKind(wrapped, KindInvalidData) {
		t.Error("IsKind should match outer kind through fmt wrapping")
	}
	if !IsKind(wrapped, KindNotSource) {
		t.Error("IsKind should match kind in cause chain")
	}
	if IsKind(wrapped, KindNotFound) {
		t.Error("IsKind should not match absent kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("IsKind should not match plain errors")
	}
	if IsKind(nil, KindNotFound) {
		t.Error("IsKind should not match nil")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound(PhaseStore, "x")); got != KindNotFound {
		t.Errorf("KindOf = %q, want %q", got, KindNotFound)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf plain = %q, want empty", got)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseWorld, KindNotFound).
		Path("chapters/one.typ").
		Cause(cause).
		Detail("included from %s line %d", "main.typ", 3).
		Build()

	if err.Phase != PhaseWorld {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseWorld)
	}
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
	}
	if err.Path != "chapters/one.typ" {
		t.Errorf("Path = %v, want chapters/one.typ", err.Path)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "included from main.typ line 3" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseStore, "missing.png")
		if err.Kind != KindNotFound || err.Path != "missing.png" {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("NotSource", func(t *testing.T) {
		err := NotSource(PhaseStore, "logo.png")
		if err.Kind != KindNotSource {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotSource)
		}
	})

	t.Run("AccessDenied", func(t *testing.T) {
		err := AccessDenied(PhaseStore, "store closed")
		if err.Kind != KindAccessDenied {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAccessDenied)
		}
	})

	t.Run("Compilation", func(t *testing.T) {
		err := Compilation(3)
		if err.Kind != KindCompilation || !strings.Contains(err.Detail, "3") {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Serialization", func(t *testing.T) {
		cause := errors.New("boom")
		err := Serialization("pdf", cause)
		if err.Phase != PhaseRender || err.Kind != KindSerialization {
			t.Errorf("got %+v", err)
		}
		if !errors.Is(err, cause) {
			t.Error("Serialization should wrap cause")
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseHost, 10, 5)
		if err.Kind != KindOutOfBounds || !strings.Contains(err.Detail, "10") {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Incompatible", func(t *testing.T) {
		err := Incompatible("0.9.0", "^1.0.0")
		if err.Kind != KindIncompatible || !strings.Contains(err.Detail, "0.9.0") {
			t.Errorf("got %+v", err)
		}
	})
}

func TestMissingExportsError(t *testing.T) {
	t.Run("sorted listing", func(t *testing.T) {
		err := NewMissingExportsError([]string{"render_svg", "alloc"})
		if len(err.Exports) != 2 || err.Exports[0] != "alloc" {
			t.Fatalf("Exports = %v", err.Exports)
		}
		msg := err.Error()
		if !strings.Contains(msg, "2 export(s)") || !strings.Contains(msg, "render_svg") {
			t.Errorf("unexpected message %q", msg)
		}
	})

	t.Run("empty exports", func(t *testing.T) {
		msg := NewMissingExportsError(nil).Error()
		if !strings.Contains(msg, "no exports specified") {
			t.Errorf("empty error should have specific message, got: %s", msg)
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingExportsError([]string{"compile"})
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
		if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindMissingExport}) {
			t.Error("errors.Is should match load/missing_export")
		}
	})
}
