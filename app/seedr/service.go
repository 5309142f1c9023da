package seedr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-seek/app/cfg"
)

// ErrNoDownloadableFiles means a folder has no file that resolves to a URL.
var ErrNoDownloadableFiles = errors.New("no downloadable files found in the specified folder")

// Account is the set of Seedr operations the service relies on.
type Account interface {
	Authenticate(ctx context.Context, creds cfg.AccountCredentials) (string, error)
	SpaceInfo(ctx context.Context, token string) (*SpaceInfo, error)
	ListFolders(ctx context.Context, token string) ([]Folder, error)
	FolderContents(ctx context.Context, token string, folderID int) (*FolderContents, error)
	FileDownloadLink(ctx context.Context, token string, fileID int) (*DownloadLink, error)
	SubmitMagnet(ctx context.Context, token, magnet string) (ProviderResponse, error)
	DeleteFolder(ctx context.Context, token string, folderID int) (ProviderResponse, error)
	Wishlist(ctx context.Context, token string) ([]map[string]any, error)
}

var _ Account = (*Client)(nil)

// Timing controls the offload flow's waits.
type Timing struct {
	SettleDelay  time.Duration // pause after submitting before the first snapshot
	PollAttempts int           // folder polls before falling back to a full scan
	PollInterval time.Duration // pause between polls
}

func DefaultTiming() Timing {
	return Timing{
		SettleDelay:  5 * time.Second,
		PollAttempts: 60,
		PollInterval: time.Second,
	}
}

// Service runs account-level use cases. Every top-level call obtains a fresh token.
type Service struct {
	account Account
	creds   cfg.AccountCredentials
	timing  Timing
}

func NewService(account Account, creds cfg.AccountCredentials, timing Timing) *Service {
	return &Service{account: account, creds: creds, timing: timing}
}

// Download is a resolved direct link for one file.
type Download struct {
	URL      string `json:"download_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// AccountStatus summarizes the account for GET /seedr-status.
type AccountStatus struct {
	Space    *SpaceInfo
	Wishlist []map[string]any
	Folders  []Folder
}

// DeleteResult reports a folder deletion and the listing that followed it.
type DeleteResult struct {
	Deleted  bool
	Folders  []Folder
	Response ProviderResponse
}

func (s *Service) token(ctx context.Context) (string, error) {
	token, err := s.account.Authenticate(ctx, s.creds)
	if err != nil {
		return "", fmt.Errorf("failed to get Seedr token: %w", err)
	}
	return token, nil
}

// ResolveFolder returns a direct link for the first file of folderID.
func (s *Service) ResolveFolder(ctx context.Context, folderID int) (*Download, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	contents, err := s.account.FolderContents(ctx, token, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %d: %w", folderID, err)
	}

	download, err := s.resolveFirstFile(ctx, token, contents)
	if err != nil {
		slog.Warn("Folder has no resolvable file", "folder_id", folderID, "error", err)
		return nil, ErrNoDownloadableFiles
	}
	if download == nil {
		return nil, ErrNoDownloadableFiles
	}

	return download, nil
}

// Status gathers space, wishlist and top-level folders. Space and wishlist
// failures degrade to empty values; a folder listing failure is an error.
func (s *Service) Status(ctx context.Context) (*AccountStatus, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{}

	if space, err := s.account.SpaceInfo(ctx, token); err != nil {
		slog.Warn("Failed to get account space", "error", err)
	} else {
		status.Space = space
	}

	if wishlist, err := s.account.Wishlist(ctx, token); err != nil {
		slog.Warn("Failed to get wishlist", "error", err)
		status.Wishlist = []map[string]any{}
	} else {
		status.Wishlist = wishlist
	}

	folders, err := s.account.ListFolders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	status.Folders = nonNilFolders(folders)

	return status, nil
}

// DeleteFolder removes a folder and, on success, returns the refreshed listing.
func (s *Service) DeleteFolder(ctx context.Context, folderID int) (*DeleteResult, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.account.DeleteFolder(ctx, token, folderID)
	if err != nil && resp == nil {
		return nil, fmt.Errorf("failed to delete folder %d: %w", folderID, err)
	}

	result := &DeleteResult{Response: resp}
	switch resp.Result() {
	case "success", "true":
		result.Deleted = true
	default:
		return result, nil
	}

	folders, err := s.account.ListFolders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders after delete: %w", err)
	}
	result.Folders = nonNilFolders(folders)

	return result, nil
}

// resolveFirstFile resolves the first listed file. It returns (nil, nil)
// when the folder has no files.
func (s *Service) resolveFirstFile(ctx context.Context, token string, contents *FolderContents) (*Download, error) {
	if contents == nil || len(contents.Files) == 0 {
		return nil, nil
	}

	file := contents.Files[0]
	link, err := s.account.FileDownloadLink(ctx, token, file.FolderFileID)
	if err != nil {
		return nil, err
	}

	return &Download{URL: link.URL, FileName: file.Name, FileSize: file.Size}, nil
}

func nonNilFolders(folders []Folder) []Folder {
	if folders == nil {
		return []Folder{}
	}
	return folders
}
