package seedr

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/rss-seek/app/cfg"
)

// fakeAccount scripts Seedr answers. listings is consumed one entry per
// ListFolders call; the last entry repeats.
type fakeAccount struct {
	mu sync.Mutex

	authErr      error
	space        *SpaceInfo
	spaceErr     error
	listings     [][]Folder
	listErrAt    map[int]error
	contents     map[int][]*FolderContents
	contentsErr  map[int]error
	links        map[int]*DownloadLink
	submitResp   ProviderResponse
	submitErr    error
	deleteResp   ProviderResponse
	deleteErr    error
	wishlist     []map[string]any
	wishlistErr  error
	onSubmit     func()
	listCalls    int
	contentCalls map[int]int
	submitted    []string
	deleted      []int
}

func (f *fakeAccount) Authenticate(ctx context.Context, creds cfg.AccountCredentials) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return "token", nil
}

func (f *fakeAccount) SpaceInfo(ctx context.Context, token string) (*SpaceInfo, error) {
	return f.space, f.spaceErr
}

func (f *fakeAccount) ListFolders(ctx context.Context, token string) ([]Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.listCalls
	f.listCalls++
	if err, ok := f.listErrAt[call]; ok {
		return nil, err
	}
	if len(f.listings) == 0 {
		return nil, nil
	}
	if call >= len(f.listings) {
		call = len(f.listings) - 1
	}
	return f.listings[call], nil
}

func (f *fakeAccount) FolderContents(ctx context.Context, token string, folderID int) (*FolderContents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.contentCalls == nil {
		f.contentCalls = map[int]int{}
	}
	call := f.contentCalls[folderID]
	f.contentCalls[folderID]++

	if err, ok := f.contentsErr[folderID]; ok {
		return nil, err
	}
	scripted := f.contents[folderID]
	if len(scripted) == 0 {
		return &FolderContents{}, nil
	}
	if call >= len(scripted) {
		call = len(scripted) - 1
	}
	return scripted[call], nil
}

func (f *fakeAccount) FileDownloadLink(ctx context.Context, token string, fileID int) (*DownloadLink, error) {
	if link, ok := f.links[fileID]; ok {
		return link, nil
	}
	return nil, &ProviderError{Operation: "fetch_file", Err: ErrNoDownloadURL}
}

func (f *fakeAccount) SubmitMagnet(ctx context.Context, token, magnet string) (ProviderResponse, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, magnet)
	f.mu.Unlock()
	if f.onSubmit != nil {
		f.onSubmit()
	}
	return f.submitResp, f.submitErr
}

func (f *fakeAccount) DeleteFolder(ctx context.Context, token string, folderID int) (ProviderResponse, error) {
	f.deleted = append(f.deleted, folderID)
	return f.deleteResp, f.deleteErr
}

func (f *fakeAccount) Wishlist(ctx context.Context, token string) ([]map[string]any, error) {
	return f.wishlist, f.wishlistErr
}

func (f *fakeAccount) contentCallsFor(folderID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contentCalls[folderID]
}

var errBoom = errors.New("boom")

func withFiles(files ...File) *FolderContents {
	return &FolderContents{Files: files}
}
