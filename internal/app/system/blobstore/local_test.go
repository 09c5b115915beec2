package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocal_PutDelete(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/uploads/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	url, err := l.Put(context.Background(), "profiles/abc.jpg", strings.NewReader("jpeg bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/uploads/profiles/abc.jpg" {
		t.Errorf("url = %q, want %q", url, "/uploads/profiles/abc.jpg")
	}
	data, err := os.ReadFile(filepath.Join(root, "profiles", "abc.jpg"))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("stored bytes = %q", data)
	}

	if err := l.Delete(context.Background(), "profiles/abc.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "profiles", "abc.jpg")); !os.IsNotExist(err) {
		t.Error("file still present after delete")
	}

	// Deleting a missing key is not an error.
	if err := l.Delete(context.Background(), "profiles/abc.jpg"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	bad := []string{"", "   ", "../secrets", "a/../../b", "/etc/passwd"}
	for _, k := range bad {
		if _, err := sanitizeKey(k); err == nil {
			t.Errorf("sanitizeKey(%q) accepted a bad key", k)
		}
	}
	got, err := sanitizeKey("profiles/./x.png")
	if err != nil {
		t.Fatalf("sanitizeKey: %v", err)
	}
	if got != "profiles/x.png" {
		t.Errorf("sanitizeKey = %q, want cleaned path", got)
	}
}
