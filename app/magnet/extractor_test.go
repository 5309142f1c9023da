package magnet

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const detailPage = `<!DOCTYPE html>
<html>
<body>
  <h1>Dune Part Two (2024)</h1>
  <table>
    <tr>
      <td>1080p</td>
      <td><a href="magnet:?xt=urn:btih:AAA&dn=Dune.Part.Two.2024.1080p.WEB.2.65GB.mkv&tr=udp%3A%2F%2Ftracker">Download</a></td>
    </tr>
    <tr>
      <td><a href="magnet:?xt=urn:btih:BBB&dn=Dune.Part.Two.2024.720p%20%5B1.2%20GB%5D">Download</a></td>
    </tr>
    <tr>
      <td>Size: <b>850</b> MB <a href="magnet:?xt=urn:btih:CCC&dn=Dune.Part.Two.480p">Magnet</a></td>
    </tr>
    <tr>
      <td><span><a href="magnet:?xt=urn:btih:DDD">4K 12.5 GB</a></span></td>
    </tr>
    <tr>
      <td><a href="magnet:?xt=urn:btih:EEE&dn=Dune.Part.Two.CAM">Magnet</a></td>
    </tr>
    <tr>
      <td><a href="https://example.com/dune.torrent">Torrent file 2GB</a></td>
    </tr>
  </table>
</body>
</html>`

func TestExtract(t *testing.T) {
	extractor := NewExtractor(http.DefaultClient, "test", time.Second)

	links, err := extractor.Extract([]byte(detailPage))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []Link{
		{Size: "2.65GB", Magnet: "magnet:?xt=urn:btih:AAA&dn=Dune.Part.Two.2024.1080p.WEB.2.65GB.mkv&tr=udp%3A%2F%2Ftracker"},
		{Size: "1.2GB", Magnet: "magnet:?xt=urn:btih:BBB&dn=Dune.Part.Two.2024.720p%20%5B1.2%20GB%5D"},
		{Size: "850MB", Magnet: "magnet:?xt=urn:btih:CCC&dn=Dune.Part.Two.480p"},
		{Size: "12.5GB", Magnet: "magnet:?xt=urn:btih:DDD"},
	}

	if len(links) != len(expected) {
		t.Fatalf("Expected %d links, got %d: %+v", len(expected), len(links), links)
	}
	for i, want := range expected {
		if links[i] != want {
			t.Errorf("Link %d: expected %+v, got %+v", i, want, links[i])
		}
	}
}

func TestExtractNeverEmitsInvalidSize(t *testing.T) {
	page := `<html><body>
	<p><a href="magnet:?dn=a%ZZ&xt=1">Magnet 3 TB</a></p>
	<p><a href="magnet:?dn=Unknown">Unknown</a></p>
	<p><a href="magnet:?dn=film+1.1+gb">Magnet</a></p>
	<p>900 MB <a href="magnet:?xt=2">x</a></p>
	</body></html>`

	links, err := NewExtractor(http.DefaultClient, "test", time.Second).Extract([]byte(page))
	if err != nil {
		t.Fatal(err)
	}

	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d: %+v", len(links), links)
	}
	for _, link := range links {
		if !ValidSize(link.Size) {
			t.Errorf("Emitted invalid size %q", link.Size)
		}
	}
	if links[0].Size != "1.1GB" {
		t.Errorf("Expected plus-encoded spaces to decode, got %q", links[0].Size)
	}
}

func TestExtractNoMagnets(t *testing.T) {
	links, err := NewExtractor(http.DefaultClient, "test", time.Second).Extract([]byte("<html><body><a href='/x'>x</a></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if links == nil || len(links) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", links)
	}
}

func TestRunFetchesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "rss-seek-test" {
			t.Errorf("Expected user agent 'rss-seek-test', got '%s'", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, detailPage)
	}))
	defer server.Close()

	links := NewExtractor(server.Client(), "rss-seek-test", time.Second).Run(context.Background(), server.URL)
	if len(links) != 4 {
		t.Errorf("Expected 4 links, got %d", len(links))
	}
}

func TestRunNon200ReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, detailPage)
	}))
	defer server.Close()

	links := NewExtractor(server.Client(), "test", time.Second).Run(context.Background(), server.URL)
	if links == nil || len(links) != 0 {
		t.Errorf("Expected empty result, got %#v", links)
	}
}

func TestRunUnreachableReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	links := NewExtractor(http.DefaultClient, "test", time.Second).Run(context.Background(), url)
	if len(links) != 0 {
		t.Errorf("Expected empty result, got %#v", links)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		href     string
		expected string
	}{
		{"magnet:?xt=urn:btih:X&dn=My%20Movie%201GB", "My Movie 1GB"},
		{"magnet:?dn=First&xt=urn:btih:X", "First"},
		{"magnet:?xt=urn:btih:X", ""},
	}

	for _, tt := range tests {
		if got := displayName(tt.href); got != tt.expected {
			t.Errorf("displayName(%q) = %q, expected %q", tt.href, got, tt.expected)
		}
	}
}
