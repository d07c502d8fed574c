package vfs

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/typeset"
)

func TestStore_InsertTextAndSource(t *testing.T) {
	s := NewStore()
	if err := s.InsertText("main.typ", "hello"); err != nil {
		t.Fatalf("InsertText failed: %v", err)
	}

	src, err := s.Source(typeset.NewFileID("/main.typ"))
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if src.Text() != "hello" {
		t.Errorf("Text() = %q, want hello", src.Text())
	}
	if src.ID() != typeset.NewFileID("main.typ") {
		t.Errorf("ID() = %v", src.ID())
	}
}

func TestStore_RejectsRootNames(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"", "/", ".", "a/..", "/../"} {
		if err := s.InsertText(name, "x"); !errors.IsKind(err, errors.KindInvalidInput) {
			t.Errorf("InsertText(%q) = %v, want invalid_input", name, err)
		}
		if err := s.InsertBinary(name, []byte{1}); !errors.IsKind(err, errors.KindInvalidInput) {
			t.Errorf("InsertBinary(%q) = %v, want invalid_input", name, err)
		}
	}
	if n := s.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("a.typ", "one")
	_ = s.InsertText("a.typ", "two")

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	src, _ := s.Source(typeset.NewFileID("a.typ"))
	if src.Text() != "two" {
		t.Errorf("Text() = %q, want two", src.Text())
	}

	// switching variants replaces too
	_ = s.InsertBinary("a.typ", []byte{1, 2})
	if _, err := s.Source(typeset.NewFileID("a.typ")); !errors.IsKind(err, errors.KindNotSource) {
		t.Errorf("expected not_source after binary overwrite, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_Binary(t *testing.T) {
	s := NewStore()
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	if err := s.InsertBinary("img/logo.png", data); err != nil {
		t.Fatalf("InsertBinary failed: %v", err)
	}

	// caller mutation after insert must not leak into the store
	data[0] = 0

	got, err := s.Bytes(typeset.NewFileID("img/logo.png"))
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}) {
		t.Errorf("Bytes() = %v", got)
	}

	got[1] = 'X'
	again, _ := s.Bytes(typeset.NewFileID("img/logo.png"))
	if again[1] != 'P' {
		t.Error("returned bytes should be a copy")
	}

	_, err = s.Source(typeset.NewFileID("img/logo.png"))
	if !errors.IsKind(err, errors.KindNotSource) {
		t.Errorf("Source on binary: got %v, want not_source", err)
	}
}

func TestStore_EmptyBinary(t *testing.T) {
	s := NewStore()
	_ = s.InsertBinary("empty.bin", nil)
	got, err := s.Bytes(typeset.NewFileID("empty.bin"))
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Bytes() = %#v, want empty non-nil", got)
	}
}

func TestStore_TextAsBytes(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("notes.typ", "ünïcode")
	got, err := s.Bytes(typeset.NewFileID("notes.typ"))
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(got) != "ünïcode" {
		t.Errorf("Bytes() = %q", got)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := NewStore()
	id := typeset.NewFileID("missing.typ")

	if _, err := s.Source(id); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Source: got %v, want not_found", err)
	}
	_, err := s.Bytes(id)
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Bytes: got %v, want not_found", err)
	}

	var e *errors.Error
	if !stderrors.As(err, &e) || e.Path != "missing.typ" {
		t.Errorf("not_found should carry the rootless path, got %v", err)
	}
	if _, err := s.Stat(id); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Stat: got %v, want not_found", err)
	}
}

func TestStore_RemoveAndList(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("main.typ", "x")
	_ = s.InsertText("chapters/one.typ", "y")
	_ = s.InsertBinary("logo.png", []byte{1})

	paths, err := s.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	sort.Strings(paths)
	want := []string{"chapters/one.typ", "logo.png", "main.typ"}
	if fmt.Sprint(paths) != fmt.Sprint(want) {
		t.Errorf("Paths() = %v, want %v", paths, want)
	}

	if err := s.Remove("logo.png"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove("never-stored.png"); err != nil {
		t.Errorf("removing an absent name should be a no-op, got %v", err)
	}

	ids, _ := s.List()
	if len(ids) != 2 {
		t.Errorf("List() = %v, want 2 ids", ids)
	}
	for _, id := range ids {
		if id.Rootless() == "logo.png" {
			t.Error("logo.png should have been removed")
		}
	}
}

func TestStore_Stat(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("main.typ", "hello")
	_ = s.InsertBinary("a.bin", []byte{1, 2, 3})

	info, err := s.Stat(typeset.NewFileID("main.typ"))
	if err != nil || info.Kind != KindText || info.Size != 5 {
		t.Errorf("Stat(main.typ) = %+v, %v", info, err)
	}
	info, err = s.Stat(typeset.NewFileID("a.bin"))
	if err != nil || info.Kind != KindBinary || info.Size != 3 {
		t.Errorf("Stat(a.bin) = %+v, %v", info, err)
	}
	if KindBinary.String() != "binary" || KindText.String() != "text" {
		t.Error("unexpected Kind strings")
	}
}

func TestStore_Close(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("main.typ", "x")
	s.Close()

	checks := map[string]error{
		"InsertText":   s.InsertText("a.typ", "y"),
		"InsertBinary": s.InsertBinary("b.bin", []byte{1}),
		"Remove":       s.Remove("main.typ"),
	}
	_, checks["Source"] = s.Source(typeset.NewFileID("main.typ"))
	_, checks["Bytes"] = s.Bytes(typeset.NewFileID("main.typ"))
	_, checks["List"] = s.List()

	for op, err := range checks {
		if !errors.IsKind(err, errors.KindAccessDenied) {
			t.Errorf("%s on closed store: got %v, want access_denied", op, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() on closed store = %d", s.Len())
	}
}

func TestStore_PanicPoisons(t *testing.T) {
	s := NewStore()
	_ = s.InsertText("main.typ", "x")

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = s.with(func(map[typeset.FileID]Entry) error {
			panic("boom")
		})
	}()

	_, err := s.Source(typeset.NewFileID("main.typ"))
	if !errors.IsKind(err, errors.KindAccessDenied) {
		t.Errorf("Source after panic: got %v, want access_denied", err)
	}
	if err := s.InsertText("main.typ", "y"); !errors.IsKind(err, errors.KindAccessDenied) {
		t.Errorf("InsertText after panic: got %v, want access_denied", err)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("f%d.typ", i)
			for j := 0; j < 100; j++ {
				_ = s.InsertText(name, fmt.Sprint(j))
				if _, err := s.Source(typeset.NewFileID(name)); err != nil {
					t.Errorf("Source(%s) failed: %v", name, err)
					return
				}
				_, _ = s.List()
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Errorf("Len() = %d, want 8", s.Len())
	}
	for i := 0; i < 8; i++ {
		src, _ := s.Source(typeset.NewFileID(fmt.Sprintf("f%d.typ", i)))
		if src.Text() != "99" {
			t.Errorf("f%d.typ = %q, want 99", i, src.Text())
		}
	}
}
