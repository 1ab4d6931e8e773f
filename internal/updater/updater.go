// Package updater performs self-updates from GitHub releases.
package updater

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/brutus/deskstream/internal/logging"
	"github.com/brutus/deskstream/internal/version"
)

// Repository is the GitHub slug releases are published under.
const Repository = "brutus/deskstream"

// Updater checks for and applies new releases of the running binary.
type Updater struct {
	updater    *selfupdate.Updater
	repository selfupdate.Repository
	logger     *slog.Logger
}

// New creates an updater backed by the GitHub releases of Repository.
func New() (*Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	u, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &Updater{
		updater:    u,
		repository: selfupdate.ParseSlug(Repository),
		logger:     logging.GetLogger("updater"),
	}, nil
}

// Check returns the latest published release and whether it is newer
// than the running version.
func (u *Updater) Check(ctx context.Context) (*selfupdate.Release, bool, error) {
	latest, found, err := u.updater.DetectLatest(ctx, u.repository)
	if err != nil {
		return nil, false, fmt.Errorf("failed to detect latest release: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if latest.LessOrEqual(version.String()) {
		u.logger.Info("Already up to date", "version", version.String())
		return latest, false, nil
	}
	return latest, true, nil
}

// Apply replaces the running executable with the latest release.
func (u *Updater) Apply(ctx context.Context) (*selfupdate.Release, error) {
	release, err := u.updater.UpdateSelf(ctx, version.String(), u.repository)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	u.logger.Info("Updated", "from", version.String(), "to", release.Version())
	return release, nil
}
