package cmd

import (
	"context"

	"github.com/hris-labs/shiftgate/attendance"
	"github.com/hris-labs/shiftgate/config"
	"github.com/hris-labs/shiftgate/directory"
	"github.com/hris-labs/shiftgate/shift"
)

// newSessionDirectory picks the remote directory when a URL is configured and
// the local session store otherwise.
func newSessionDirectory(cfg *config.Config, sessions *attendance.SessionStore) shift.Directory {
	if cfg.Directory.URL != "" {
		return directory.NewHTTPDirectory(cfg.Directory.URL,
			directory.WithTimeout(cfg.Directory.Timeout.Duration),
			directory.WithAuthHeader(cfg.Directory.AuthHeader))
	}
	return directory.NewStoreDirectory(sessions)
}

// openDirectory is newSessionDirectory for commands that do not otherwise
// need storage. Storage is only opened for the local session store.
func openDirectory(ctx context.Context, cfg *config.Config) (shift.Directory, func() error, error) {
	if cfg.Directory.URL != "" {
		return newSessionDirectory(cfg, nil), func() error { return nil }, nil
	}
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, closeRepo, err
	}
	return newSessionDirectory(cfg, attendance.NewSessionStore(repo)), closeRepo, nil
}

func newCache(cfg *config.Config, dir shift.Directory) *shift.Cache {
	return shift.NewCache(dir,
		shift.WithTTL(cfg.Cache.TTL.Duration),
		shift.WithServeStale(cfg.Cache.ServeStale))
}
