package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchAll_SingleFile(t *testing.T) {
	content := []byte("Hello, World!")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "test.txt")

	mgr := NewManager()
	result, err := mgr.FetchAll(context.Background(), []Item{{
		URL:  server.URL,
		Path: destPath,
	}}, 1, nil)

	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Failed != 0 {
		t.Errorf("Expected 0 failures, got %d", result.Failed)
	}
	if result.Completed != 1 {
		t.Errorf("Expected 1 completed, got %d", result.Completed)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("Reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("Content mismatch: got %q, want %q", data, content)
	}
}

func TestFetchAll_SHA1Validation(t *testing.T) {
	content := []byte("Test content for hashing")
	hash := sha1.Sum(content)
	expectedHash := hex.EncodeToString(hash[:])

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "hashed.txt")

	mgr := NewManager()
	result, err := mgr.FetchAll(context.Background(), []Item{{
		URL:  server.URL,
		Path: destPath,
		SHA1: expectedHash,
		Size: int64(len(content)),
	}}, 1, nil)

	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Failed != 0 {
		t.Errorf("Expected 0 failures, got %d with errors: %v", result.Failed, result.Errors)
	}
}

func TestFetchAll_SHA1Mismatch(t *testing.T) {
	content := []byte("Test content")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "bad_hash.txt")

	mgr := NewManager()
	result, _ := mgr.FetchAll(context.Background(), []Item{{
		URL:  server.URL,
		Path: destPath,
		SHA1: "0000000000000000000000000000000000000000",
	}}, 1, nil)

	if result.Failed != 1 {
		t.Errorf("Expected 1 failure due to hash mismatch, got %d", result.Failed)
	}
}

func TestFetchAll_SkipsExistingValid(t *testing.T) {
	content := []byte("Existing content")
	hash := sha1.Sum(content)
	expectedHash := hex.EncodeToString(hash[:])

	serverCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalled = true
		w.Write(content)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "existing.txt")
	os.WriteFile(destPath, content, 0644)

	mgr := NewManager()
	result, err := mgr.FetchAll(context.Background(), []Item{{
		URL:  server.URL,
		Path: destPath,
		SHA1: expectedHash,
		Size: int64(len(content)),
	}}, 1, nil)

	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Completed != 1 {
		t.Errorf("Expected 1 completed, got %d", result.Completed)
	}
	if serverCalled {
		t.Error("Server should not be called for existing valid file")
	}
}

func TestFetchAll_MultipleFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content-" + r.URL.Path))
	}))
	defer server.Close()

	tmpDir := t.TempDir()

	items := []Item{
		{URL: server.URL + "/1", Path: filepath.Join(tmpDir, "1.txt")},
		{URL: server.URL + "/2", Path: filepath.Join(tmpDir, "2.txt")},
		{URL: server.URL + "/3", Path: filepath.Join(tmpDir, "3.txt")},
	}

	mgr := NewManager()
	result, err := mgr.FetchAll(context.Background(), items, 2, nil)

	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if result.Completed != 3 {
		t.Errorf("Expected 3 completed, got %d", result.Completed)
	}

	for _, item := range items {
		if _, err := os.Stat(item.Path); err != nil {
			t.Errorf("File %s should exist: %v", item.Path, err)
		}
	}
}

func TestFetchAll_EmptyList(t *testing.T) {
	mgr := NewManager()
	result, err := mgr.FetchAll(context.Background(), []Item{}, 4, nil)

	if err != nil {
		t.Fatalf("Empty fetch should not fail: %v", err)
	}
	if result.Completed != 0 || result.Failed != 0 {
		t.Error("Empty fetch should have zero completed and failed")
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []float64{500, 1024, 1536, 1024 * 1024, 10 * 1024 * 1024}

	for _, bps := range tests {
		got := FormatSpeed(bps)
		if got == "" {
			t.Errorf("FormatSpeed(%f) returned empty string", bps)
		}
	}
}

func TestObjectPath(t *testing.T) {
	got := ObjectPath("/root/data", "0123456789abcdef0123456789abcdef01234567")
	want := filepath.Join("/root/data", "objects", "01", "0123456789abcdef0123456789abcdef01234567")
	if got != want {
		t.Errorf("ObjectPath = %q, want %q", got, want)
	}
}
