package uploader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Upload(t *testing.T) {
	t.Parallel()

	var gotFile, gotPreset, gotPublicID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotFile = r.FormValue("file")
		gotPreset = r.FormValue("upload_preset")
		gotPublicID = r.FormValue("public_id")

		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://cdn.example.com/cards/pi_123_front.png",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tapcard_unsigned")
	url, err := client.Upload(context.Background(), "data:image/png;base64,aGVsbG8=", "pi_123_front")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://cdn.example.com/cards/pi_123_front.png" {
		t.Errorf("unexpected url: %q", url)
	}
	if gotFile != "data:image/png;base64,aGVsbG8=" {
		t.Errorf("unexpected file field: %q", gotFile)
	}
	if gotPreset != "tapcard_unsigned" {
		t.Errorf("unexpected upload_preset: %q", gotPreset)
	}
	if gotPublicID != "pi_123_front" {
		t.Errorf("unexpected public_id: %q", gotPublicID)
	}
}

func TestClient_UploadErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()

		client := NewClient("http://localhost", "preset")
		if _, err := client.Upload(context.Background(), "", "id"); err == nil {
			t.Error("expected error for empty payload")
		}
	})

	t.Run("non-200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid preset", http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewClient(server.URL, "preset")
		if _, err := client.Upload(context.Background(), "payload", "id"); err == nil {
			t.Error("expected error for non-200 response")
		}
	})

	t.Run("missing secure_url", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "preset")
		if _, err := client.Upload(context.Background(), "payload", "id"); err == nil {
			t.Error("expected error when secure_url is missing")
		}
	})
}
