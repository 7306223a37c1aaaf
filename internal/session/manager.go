// Package session acquires, restores and persists the authenticated
// session blob used by the page driver. The blob is opaque; the manager
// only moves it between disk and driver.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonesrussell/linkreach/internal/config"
	"github.com/jonesrussell/linkreach/internal/logger"
	"github.com/jonesrussell/linkreach/internal/pagedriver"
)

// ErrNeedsLogin means no usable session exists; the user must run the
// login flow before starting a job.
var ErrNeedsLogin = errors.New("no authenticated session, login required")

// Manager restores and persists session blobs for page drivers.
type Manager struct {
	blobPath string
	feedURL  string
	logger   logger.Interface
}

// NewManager creates a session manager.
func NewManager(cfg *config.SessionConfig, outreachCfg *config.OutreachConfig, log logger.Interface) *Manager {
	return &Manager{
		blobPath: cfg.BlobPath,
		feedURL:  outreachCfg.FeedURL,
		logger:   log,
	}
}

// Acquire restores the persisted blob into the driver and verifies the
// session still reaches authenticated content. Returns ErrNeedsLogin when
// no blob exists or the session has gone stale.
func (m *Manager) Acquire(ctx context.Context, driver pagedriver.Driver) error {
	blob, err := os.ReadFile(m.blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNeedsLogin
		}
		return fmt.Errorf("failed to read session blob: %w", err)
	}

	if err := driver.RestoreSessionBlob(blob); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	authenticated, err := m.IsAuthenticated(ctx, driver)
	if err != nil {
		return err
	}
	if !authenticated {
		m.logger.Warn("Persisted session is stale", "blob_path", m.blobPath)
		return ErrNeedsLogin
	}

	m.logger.Debug("Session restored", "blob_path", m.blobPath)

	return nil
}

// IsAuthenticated probes a landmark authenticated page through the driver.
func (m *Manager) IsAuthenticated(ctx context.Context, driver pagedriver.Driver) (bool, error) {
	outcome, err := driver.Navigate(ctx, m.feedURL)
	if err != nil {
		return false, fmt.Errorf("failed to probe authenticated page: %w", err)
	}

	return outcome == pagedriver.OutcomeOK, nil
}

// Persist captures the driver's current session blob and writes it to
// disk. The blob carries credentials, so the file is owner-only.
func (m *Manager) Persist(driver pagedriver.Driver) error {
	blob, err := driver.CaptureSessionBlob()
	if err != nil {
		return fmt.Errorf("failed to capture session: %w", err)
	}

	if dir := filepath.Dir(m.blobPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	if err := os.WriteFile(m.blobPath, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write session blob: %w", err)
	}

	m.logger.Debug("Session persisted", "blob_path", m.blobPath)

	return nil
}
