package seedr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/rss-seek/app/metrics"
)

// State is a step of the offload flow.
type State string

const (
	StateAuthenticating    State = "authenticating"
	StateSpaceCheck        State = "space_check"
	StateSnapshotBefore    State = "snapshot_before"
	StateSubmitting        State = "submitting"
	StateWaitMaterialize   State = "wait_materialize"
	StatePollingNewFolder  State = "polling_new_folder"
	StatePollingAllFolders State = "polling_all_folders"
)

// OutcomeKind is the terminal result of an offload.
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeSpaceRejected OutcomeKind = "space_rejected"
	OutcomeNoFiles       OutcomeKind = "no_files"
	OutcomeNoLink        OutcomeKind = "no_link"
)

const (
	resultNotEnoughSpace   = "not_enough_space_added_to_wishlist"
	fragmentNotEnoughSpace = "not_enough_space"
)

var ErrSpaceUnavailable = errors.New("failed to get account space information")

// Outcome carries whatever the terminal state reports: the download on
// success, space info on rejection or no files, the folder listing otherwise.
type Outcome struct {
	Kind     OutcomeKind
	Download *Download
	Space    *SpaceInfo
	Folders  []Folder
}

// FlowError records the state an offload failed in.
type FlowError struct {
	State State
	Err   error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("offload failed during %s: %v", e.State, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Submitted reports whether the magnet may already have reached Seedr.
// Failures before submission are safe to retry.
func (e *FlowError) Submitted() bool {
	switch e.State {
	case StateAuthenticating, StateSpaceCheck, StateSnapshotBefore:
		return false
	default:
		return true
	}
}

// Offload submits magnet to the account and waits for it to turn into a
// downloadable file. Cancelling ctx aborts any pending wait.
func (s *Service) Offload(ctx context.Context, magnet string) (*Outcome, error) {
	outcome, err := s.offload(ctx, magnet)
	if err != nil {
		metrics.OffloadOutcomesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.OffloadOutcomesTotal.WithLabelValues(string(outcome.Kind)).Inc()
	slog.Info("Offload finished", "outcome", outcome.Kind)
	return outcome, nil
}

func (s *Service) offload(ctx context.Context, magnet string) (*Outcome, error) {
	fail := func(state State, err error) (*Outcome, error) {
		return nil, &FlowError{State: state, Err: err}
	}

	token, err := s.token(ctx)
	if err != nil {
		return fail(StateAuthenticating, err)
	}

	space, err := s.account.SpaceInfo(ctx, token)
	if err != nil || space == nil {
		slog.Error("Space check failed", "error", err)
		return fail(StateSpaceCheck, ErrSpaceUnavailable)
	}

	before, err := s.account.ListFolders(ctx, token)
	if err != nil {
		return fail(StateSnapshotBefore, fmt.Errorf("failed to list folders: %w", err))
	}
	before = nonNilFolders(before)

	resp, err := s.account.SubmitMagnet(ctx, token, magnet)
	slog.Debug("Magnet submitted", "response", resp, "error", err)
	if isSpaceRejection(resp, err) {
		slog.Warn("Seedr rejected magnet for lack of space", "space_available", space.SpaceAvailable)
		return &Outcome{Kind: OutcomeSpaceRejected, Space: space, Folders: before}, nil
	}
	if err != nil {
		// The magnet may have been registered even though the response failed.
		slog.Warn("Magnet submission reported an error, polling anyway", "error", err)
	}

	if err := wait(ctx, s.timing.SettleDelay); err != nil {
		return fail(StateWaitMaterialize, err)
	}

	after, err := s.account.ListFolders(ctx, token)
	if err != nil {
		slog.Warn("Failed to list folders after submission", "error", err)
		after = []Folder{}
	}

	sawFiles := false

	if added := NewFolders(before, after); len(added) > 0 {
		folder := added[0]
		slog.Debug("New folder detected", "folder_id", folder.ID, "name", folder.Name)

		download, files, err := s.pollFolder(ctx, token, folder.ID)
		if err != nil {
			return fail(StatePollingNewFolder, err)
		}
		if download != nil {
			return &Outcome{Kind: OutcomeSuccess, Download: download}, nil
		}
		sawFiles = sawFiles || files
	}

	download, files, err := s.scanFolders(ctx, token, after)
	if err != nil {
		return fail(StatePollingAllFolders, err)
	}
	if download != nil {
		return &Outcome{Kind: OutcomeSuccess, Download: download}, nil
	}
	sawFiles = sawFiles || files

	if sawFiles {
		return &Outcome{Kind: OutcomeNoLink, Folders: after}, nil
	}
	return &Outcome{Kind: OutcomeNoFiles, Space: space, Folders: []Folder{}}, nil
}

// pollFolder waits for folderID to list a file, then resolves the first one.
// It reports whether any file was seen. Only cancellation is returned as an error.
func (s *Service) pollFolder(ctx context.Context, token string, folderID int) (*Download, bool, error) {
	for attempt := 1; attempt <= s.timing.PollAttempts; attempt++ {
		contents, err := s.account.FolderContents(ctx, token, folderID)
		if err != nil {
			slog.Debug("Folder poll failed", "folder_id", folderID, "attempt", attempt, "error", err)
		} else if len(contents.Files) > 0 {
			download, err := s.resolveFirstFile(ctx, token, contents)
			if err != nil {
				slog.Warn("Failed to resolve file in new folder", "folder_id", folderID, "error", err)
			}
			return download, true, nil
		}

		if attempt < s.timing.PollAttempts {
			if err := wait(ctx, s.timing.PollInterval); err != nil {
				return nil, false, err
			}
		}
	}

	slog.Info("New folder produced no files", "folder_id", folderID, "attempts", s.timing.PollAttempts)
	return nil, false, nil
}

// scanFolders resolves the first file of the first folder, in listing order,
// that yields a URL. Per-folder errors are logged and skipped.
func (s *Service) scanFolders(ctx context.Context, token string, folders []Folder) (*Download, bool, error) {
	sawFiles := false
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, sawFiles, err
		}

		contents, err := s.account.FolderContents(ctx, token, folder.ID)
		if err != nil {
			slog.Warn("Error checking folder", "folder_id", folder.ID, "error", err)
			continue
		}
		if len(contents.Files) == 0 {
			continue
		}
		sawFiles = true

		download, err := s.resolveFirstFile(ctx, token, contents)
		if err != nil {
			slog.Warn("Failed to resolve file", "folder_id", folder.ID, "error", err)
			continue
		}
		if download != nil {
			return download, true, nil
		}
	}
	return nil, sawFiles, nil
}

// NewFolders returns the folders in after whose IDs are not in before, in
// the order they appear in after.
func NewFolders(before, after []Folder) []Folder {
	known := make(map[int]struct{}, len(before))
	for _, f := range before {
		known[f.ID] = struct{}{}
	}

	var added []Folder
	for _, f := range after {
		if _, ok := known[f.ID]; !ok {
			added = append(added, f)
		}
	}
	return added
}

func isSpaceRejection(resp ProviderResponse, err error) bool {
	if resp != nil {
		if resp.Result() == resultNotEnoughSpace || resp.Contains(fragmentNotEnoughSpace) {
			return true
		}
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) && strings.Contains(provErr.Body, fragmentNotEnoughSpace) {
		return true
	}
	return false
}

// wait pauses for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
