package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalSaveAndDeleteFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalFileStorage(dir, "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	url, err := s.SaveFile(ctx, strings.NewReader("file-body"), "avatar.png", "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/uploads/") {
		t.Errorf("url = %q, want uploads prefix", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want .png extension", url)
	}

	parts := strings.Split(url, "/")
	stored := filepath.Join(dir, parts[len(parts)-1])
	body, err := os.ReadFile(stored)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "file-body" {
		t.Errorf("stored body = %q, want file-body", body)
	}

	if err := s.DeleteFile(ctx, url); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Error("file still on disk after delete")
	}

	// Deleting a missing file is not an error.
	if err := s.DeleteFile(ctx, url); err != nil {
		t.Errorf("second delete = %v, want nil", err)
	}
}

func TestLocalSaveFileExtensionFromContentType(t *testing.T) {
	s, err := NewLocalFileStorage(t.TempDir(), "http://localhost/uploads")
	if err != nil {
		t.Fatal(err)
	}

	url, err := s.SaveFile(context.Background(), strings.NewReader("x"), "noext", "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(url, ".jpeg") {
		t.Errorf("url = %q, want .jpeg from content type", url)
	}
}

func TestLocalSaveFileUniqueNames(t *testing.T) {
	s, err := NewLocalFileStorage(t.TempDir(), "http://localhost/uploads")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a, err := s.SaveFile(ctx, strings.NewReader("a"), "same.txt", "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.SaveFile(ctx, strings.NewReader("b"), "same.txt", "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two uploads of the same filename collided")
	}
}
