package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("BLOB_DIR", t.TempDir())
	s, err := New(logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, "originals/t1/doc.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if key != "originals/t1/doc.pdf" {
		t.Fatalf("key: got=%q", key)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("body: got=%q", body)
	}
}

func TestSaveRejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside", "/etc/passwd", "a/../../b"} {
		if _, err := s.Save(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete(context.Background(), "exports/none.xlsx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
