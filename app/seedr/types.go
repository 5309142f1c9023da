package seedr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstream wraps every failed Seedr call.
	ErrUpstream = errors.New("seedr request failed")
	// ErrNoDownloadURL means fetch_file answered without a url field.
	ErrNoDownloadURL = errors.New("no download url in response")
)

type Folder struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type File struct {
	FolderFileID int    `json:"folder_file_id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
}

// FolderContents is the body of GET /api/folder[/{id}].
type FolderContents struct {
	Folders   []Folder `json:"folders"`
	Files     []File   `json:"files"`
	SpaceMax  int64    `json:"space_max"`
	SpaceUsed int64    `json:"space_used"`
}

type SpaceInfo struct {
	SpaceUsed      int64   `json:"space_used"`
	SpaceMax       int64   `json:"space_max"`
	SpaceAvailable int64   `json:"space_available"`
	PercentUsed    float64 `json:"percent_used"`
}

// NewSpaceInfo derives the space summary; an unknown quota reports 0% used.
func NewSpaceInfo(used, total int64) SpaceInfo {
	info := SpaceInfo{
		SpaceUsed:      used,
		SpaceMax:       total,
		SpaceAvailable: total - used,
	}
	if total > 0 {
		info.PercentUsed = float64(used) / float64(total) * 100
	}
	return info
}

// DownloadLink is the body of a successful fetch_file call.
type DownloadLink struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ProviderResponse is a resource.php answer kept verbatim for diagnostics.
type ProviderResponse map[string]any

// Result returns the "result" field rendered as a string ("true", "success", ...).
func (r ProviderResponse) Result() string {
	v, ok := r["result"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (r ProviderResponse) ErrorMessage() string {
	if msg, ok := r["error"].(string); ok {
		return msg
	}
	return ""
}

// Contains reports whether fragment occurs anywhere in the encoded response.
func (r ProviderResponse) Contains(fragment string) bool {
	data, err := json.Marshal(r)
	if err != nil {
		return strings.Contains(fmt.Sprint(map[string]any(r)), fragment)
	}
	return strings.Contains(string(data), fragment)
}

// ProviderError describes a Seedr call that returned a non-200 status or an
// unusable body.
type ProviderError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("seedr %s", e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstream, e.Err}
	}
	return []error{ErrUpstream}
}
