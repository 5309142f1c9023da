package seedr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/rss-seek/app/cfg"
	"github.com/lysyi3m/rss-seek/app/metrics"
)

const (
	DefaultBaseURL = "https://www.seedr.cc"

	tokenPath    = "/oauth_test/token.php"
	resourcePath = "/oauth_test/resource.php"
	folderPath   = "/api/folder"
	wishlistPath = "/api/wishlist"

	// RootFolder selects the account's top-level folder.
	RootFolder = 0
)

// Client issues exactly one Seedr call per method and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
	}
}

func (c *Client) Authenticate(ctx context.Context, creds cfg.AccountCredentials) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {"seedr_chrome"},
		"type":       {"login"},
		"username":   {creds.Email},
		"password":   {creds.Password},
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.call(ctx, "authenticate", http.MethodPost, tokenPath, nil, form, &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", &ProviderError{Operation: "authenticate", Err: fmt.Errorf("response has no access_token")}
	}

	return body.AccessToken, nil
}

func (c *Client) SpaceInfo(ctx context.Context, token string) (*SpaceInfo, error) {
	var body struct {
		SpaceMax  *int64 `json:"space_max"`
		SpaceUsed *int64 `json:"space_used"`
	}
	if err := c.call(ctx, "space_info", http.MethodGet, folderPath, tokenQuery(token), nil, &body); err != nil {
		return nil, err
	}
	if body.SpaceMax == nil && body.SpaceUsed == nil {
		return nil, &ProviderError{Operation: "space_info", Err: fmt.Errorf("response has no space fields")}
	}

	var used, total int64
	if body.SpaceUsed != nil {
		used = *body.SpaceUsed
	}
	if body.SpaceMax != nil {
		total = *body.SpaceMax
	}

	info := NewSpaceInfo(used, total)
	return &info, nil
}

func (c *Client) ListFolders(ctx context.Context, token string) ([]Folder, error) {
	contents, err := c.FolderContents(ctx, token, RootFolder)
	if err != nil {
		return nil, err
	}
	return contents.Folders, nil
}

// FolderContents lists a folder; RootFolder lists the top level.
func (c *Client) FolderContents(ctx context.Context, token string, folderID int) (*FolderContents, error) {
	path := folderPath
	if folderID != RootFolder {
		path += "/" + strconv.Itoa(folderID)
	}

	var contents FolderContents
	if err := c.call(ctx, "folder_contents", http.MethodGet, path, tokenQuery(token), nil, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// FileDownloadLink resolves a file to a direct URL. An answer without a url
// yields ErrNoDownloadURL with the body kept in the ProviderError.
func (c *Client) FileDownloadLink(ctx context.Context, token string, fileID int) (*DownloadLink, error) {
	form := url.Values{
		"access_token":   {token},
		"func":           {"fetch_file"},
		"folder_file_id": {strconv.Itoa(fileID)},
	}

	var resp ProviderResponse
	if err := c.call(ctx, "fetch_file", http.MethodPost, resourcePath, nil, form, &resp); err != nil {
		return nil, err
	}

	link := &DownloadLink{}
	link.URL, _ = resp["url"].(string)
	link.Name, _ = resp["name"].(string)
	if link.URL == "" {
		body, _ := json.Marshal(resp)
		return nil, &ProviderError{Operation: "fetch_file", Body: string(body), Err: ErrNoDownloadURL}
	}

	return link, nil
}

// SubmitMagnet asks Seedr to start fetching a magnet. The raw response is
// returned even alongside an error so callers can inspect it.
func (c *Client) SubmitMagnet(ctx context.Context, token, magnet string) (ProviderResponse, error) {
	form := url.Values{
		"access_token":   {token},
		"func":           {"add_torrent"},
		"torrent_magnet": {magnet},
	}

	var resp ProviderResponse
	if err := c.call(ctx, "add_torrent", http.MethodPost, resourcePath, nil, form, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) DeleteFolder(ctx context.Context, token string, folderID int) (ProviderResponse, error) {
	items, err := json.Marshal([]map[string]any{{"type": "folder", "id": folderID}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode delete request: %w", err)
	}

	form := url.Values{
		"access_token": {token},
		"func":         {"delete"},
		"delete_arr":   {string(items)},
	}

	var resp ProviderResponse
	if err := c.call(ctx, "delete", http.MethodPost, resourcePath, nil, form, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) Wishlist(ctx context.Context, token string) ([]map[string]any, error) {
	var body struct {
		Wishlist []map[string]any `json:"wishlist"`
	}
	if err := c.call(ctx, "wishlist", http.MethodGet, wishlistPath, tokenQuery(token), nil, &body); err != nil {
		return nil, err
	}
	if body.Wishlist == nil {
		return []map[string]any{}, nil
	}
	return body.Wishlist, nil
}

// call performs one request and decodes a 200 JSON body into out.
func (c *Client) call(ctx context.Context, op, method, path string, query, form url.Values, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return &ProviderError{Operation: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.SeedrRequestsTotal.WithLabelValues(op, "error").Inc()
		return &ProviderError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SeedrRequestsTotal.WithLabelValues(op, "error").Inc()
		return &ProviderError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	slog.Debug("Seedr call", "operation", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		metrics.SeedrRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
		// Still decode so callers can look for known error codes in the body.
		_ = json.Unmarshal(data, out)
		return &ProviderError{Operation: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	metrics.SeedrRequestsTotal.WithLabelValues(op, "200").Inc()

	if err := json.Unmarshal(data, out); err != nil {
		return &ProviderError{Operation: op, StatusCode: resp.StatusCode, Body: string(data), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func tokenQuery(token string) url.Values {
	return url.Values{"access_token": {token}}
}
