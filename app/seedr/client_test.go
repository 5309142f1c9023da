package seedr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/rss-seek/app/cfg"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client(), 5*time.Second)
}

func TestClientAuthenticate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tokenPath {
			t.Errorf("Expected path %s, got %s", tokenPath, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if r.PostForm.Get("username") != "user@example.com" || r.PostForm.Get("password") != "secret" {
			t.Errorf("Expected credentials in form, got %v", r.PostForm)
		}
		if r.PostForm.Get("grant_type") != "password" {
			t.Errorf("Expected grant_type password, got %s", r.PostForm.Get("grant_type"))
		}
		w.Write([]byte(`{"access_token":"tok-1"}`))
	})

	token, err := client.Authenticate(context.Background(), cfg.AccountCredentials{Email: "user@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if token != "tok-1" {
		t.Errorf("Expected token tok-1, got %s", token)
	}
}

func TestClientAuthenticateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_grant"}`},
		{"missing token", http.StatusOK, `{}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Authenticate(context.Background(), cfg.AccountCredentials{})
			if !errors.Is(err, ErrUpstream) {
				t.Errorf("Expected ErrUpstream, got %v", err)
			}
			var provErr *ProviderError
			if !errors.As(err, &provErr) || provErr.Operation != "authenticate" {
				t.Errorf("Expected authenticate ProviderError, got %v", err)
			}
		})
	}
}

func TestClientSpaceInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "tok" {
			t.Errorf("Expected access_token query, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"space_max":1000,"space_used":250,"folders":[]}`))
	})

	info, err := client.SpaceInfo(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.SpaceAvailable != 750 {
		t.Errorf("Expected 750 available, got %d", info.SpaceAvailable)
	}
	if info.PercentUsed != 25 {
		t.Errorf("Expected 25%% used, got %f", info.PercentUsed)
	}
}

func TestClientSpaceInfoUnknownQuota(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"space_max":0,"space_used":10}`))
	})

	info, err := client.SpaceInfo(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.PercentUsed != 0 {
		t.Errorf("Expected 0%% used, got %f", info.PercentUsed)
	}
}

func TestClientSpaceInfoMissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"folders":[]}`))
	})

	if _, err := client.SpaceInfo(context.Background(), "tok"); !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestClientFolderContents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/folder":
			w.Write([]byte(`{"folders":[{"id":7,"name":"Dune","size":123}],"files":[]}`))
		case "/api/folder/7":
			w.Write([]byte(`{"folders":[],"files":[{"folder_file_id":70,"name":"dune.mkv","size":2000}]}`))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	folders, err := client.ListFolders(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(folders) != 1 || folders[0].ID != 7 || folders[0].Name != "Dune" {
		t.Errorf("Expected folder 7 Dune, got %+v", folders)
	}

	contents, err := client.FolderContents(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(contents.Files) != 1 || contents.Files[0].FolderFileID != 70 {
		t.Errorf("Expected file 70, got %+v", contents.Files)
	}
}

func TestClientFileDownloadLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("func") != "fetch_file" || r.PostForm.Get("folder_file_id") != "70" {
			t.Errorf("Unexpected form %v", r.PostForm)
		}
		w.Write([]byte(`{"url":"https://dl.example/dune.mkv","name":"dune.mkv"}`))
	})

	link, err := client.FileDownloadLink(context.Background(), "tok", 70)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if link.URL != "https://dl.example/dune.mkv" {
		t.Errorf("Expected download url, got %s", link.URL)
	}
}

func TestClientFileDownloadLinkWithoutURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":false}`))
	})

	_, err := client.FileDownloadLink(context.Background(), "tok", 70)
	if !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("Expected ErrNoDownloadURL, got %v", err)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestClientSubmitMagnetKeepsResponseOnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("torrent_magnet") != "magnet:?xt=urn:btih:abc" {
			t.Errorf("Expected magnet in form, got %v", r.PostForm)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"result":"not_enough_space_added_to_wishlist"}`))
	})

	resp, err := client.SubmitMagnet(context.Background(), "tok", "magnet:?xt=urn:btih:abc")
	if err == nil {
		t.Fatal("Expected error for non-200 status")
	}
	if resp.Result() != "not_enough_space_added_to_wishlist" {
		t.Errorf("Expected decoded result, got %q", resp.Result())
	}
}

func TestClientDeleteFolder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		var items []map[string]any
		if err := json.Unmarshal([]byte(r.PostForm.Get("delete_arr")), &items); err != nil {
			t.Fatalf("Failed to decode delete_arr: %v", err)
		}
		if len(items) != 1 || items[0]["type"] != "folder" || items[0]["id"] != float64(7) {
			t.Errorf("Unexpected delete_arr %v", items)
		}
		w.Write([]byte(`{"result":true}`))
	})

	resp, err := client.DeleteFolder(context.Background(), "tok", 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Result() != "true" {
		t.Errorf("Expected result true, got %q", resp.Result())
	}
}

func TestClientWishlist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wishlist":[{"id":1,"title":"Dune"}]}`))
	})

	wishlist, err := client.Wishlist(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(wishlist) != 1 {
		t.Errorf("Expected 1 wishlist item, got %d", len(wishlist))
	}
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), 20*time.Millisecond)
	if _, err := client.ListFolders(context.Background(), "tok"); !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream on timeout, got %v", err)
	}
}

func TestProviderResponseContains(t *testing.T) {
	resp := ProviderResponse{"result": false, "error": "not_enough_space"}
	if !resp.Contains("not_enough_space") {
		t.Error("Expected fragment to be found")
	}
	if resp.Contains("quota") {
		t.Error("Expected fragment not to be found")
	}
	if resp.ErrorMessage() != "not_enough_space" {
		t.Errorf("Expected error message, got %q", resp.ErrorMessage())
	}
}
