package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dbarreiro/rundown-sync/app/content"
)

func newTestFetcher(apiBase string) *TwitterFetcher {
	return &TwitterFetcher{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		apiBase:     apiBase,
		bearerToken: "test-token",
		userAgent:   "Rundown Sync Test/1.0",
	}
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/2/tweets/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		payload := map[string]interface{}{
			"data": map[string]string{
				"text":       "Hola Mundo",
				"created_at": "2026-01-15T10:00:00.000Z",
			},
			"includes": map[string]interface{}{
				"users": []map[string]string{
					{"name": "Test User", "username": "testuser", "profile_image_url": server.URL + "/img/profile_normal.jpg"},
				},
				"media": []map[string]string{
					{"type": "photo", "url": server.URL + "/img/post.jpg"},
				},
			},
		}
		json.NewEncoder(w).Encode(payload)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpegdata"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetch_MaterializesAsset(t *testing.T) {
	server := newAPIServer(t)
	f := newTestFetcher(server.URL)

	targetDir := filepath.Join(t.TempDir(), "123")
	f.Fetch(context.Background(), "https://x.com/testuser/status/123", targetDir)

	data, err := os.ReadFile(filepath.Join(targetDir, content.DescriptionFileName))
	if err != nil {
		t.Fatalf("Expected description file, got: %v", err)
	}

	var desc TweetDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		t.Fatalf("Failed to parse description: %v", err)
	}
	if desc.Text != "Hola Mundo" {
		t.Errorf("Expected text 'Hola Mundo', got %q", desc.Text)
	}
	if desc.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got %q", desc.Username)
	}
	if desc.ProfileImage == "" || !strings.HasSuffix(desc.ProfileImage, profileImageFile) {
		t.Errorf("Expected profile image path, got %q", desc.ProfileImage)
	}
	if desc.TweetImage == "" || !strings.HasSuffix(desc.TweetImage, postImageFile) {
		t.Errorf("Expected post image path, got %q", desc.TweetImage)
	}
	if desc.TweetVideo != "" {
		t.Errorf("Expected empty video path, got %q", desc.TweetVideo)
	}

	if _, err := os.Stat(filepath.Join(targetDir, profileImageFile)); err != nil {
		t.Error("Expected profile image on disk")
	}
	if _, err := os.Stat(filepath.Join(targetDir, postImageFile)); err != nil {
		t.Error("Expected post image on disk")
	}
}

func TestFetch_APIErrorLeavesNoDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFetcher(server.URL)
	targetDir := filepath.Join(t.TempDir(), "456")
	f.Fetch(context.Background(), "https://x.com/user/status/456", targetDir)

	if _, err := os.Stat(filepath.Join(targetDir, content.DescriptionFileName)); !os.IsNotExist(err) {
		t.Error("Expected no description file after API failure")
	}
}

func TestFetch_MalformedReferenceIgnored(t *testing.T) {
	f := newTestFetcher("http://127.0.0.1:0")

	targetDir := filepath.Join(t.TempDir(), "nothing")
	f.Fetch(context.Background(), "sin identificador", targetDir)

	if _, err := os.Stat(targetDir); !os.IsNotExist(err) {
		t.Error("Expected no target dir for malformed reference")
	}
}

func TestStatusID(t *testing.T) {
	if id, ok := statusID("https://x.com/a/status/99"); !ok || id != "99" {
		t.Errorf("Expected 99, got %q/%v", id, ok)
	}
	if _, ok := statusID("https://x.com/a"); ok {
		t.Error("Expected failure without status segment")
	}
}
