package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/ingest"
	"github.com/SamuelPereira26/Finhouse/internal/logger"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
	"github.com/SamuelPereira26/Finhouse/internal/store"
	"github.com/SamuelPereira26/Finhouse/internal/store/memstore"
	"github.com/SamuelPereira26/Finhouse/internal/store/pgstore"
)

// snapshotPath is where the file-backed store lives inside a household repo.
var snapshotPath = filepath.Join("data", "finhouse.json")

// env is everything a command needs, opened from a household directory.
type env struct {
	repo     string
	cfg      *config.Config
	log      zerolog.Logger
	notifier notify.Notifier
	store    store.Store
	svc      *ingest.Service

	mem   *memstore.Store
	close func()
}

// openEnv loads config and .env from repoDir and opens the store: PostgreSQL
// when database.url is set, otherwise the JSON snapshot under data/.
func openEnv(ctx context.Context, repoDir string, log zerolog.Logger) (*env, error) {
	repo, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	config.LoadDotEnv(filepath.Join(repo, ".env"))

	cfg, err := config.Load(filepath.Join(repo, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default("")
		cfg.ApplyEnv()
	} else if err != nil {
		return nil, err
	}

	e := &env{repo: repo, cfg: cfg, log: log, notifier: notify.New(cfg.Notifier.Telegram), close: func() {}}
	if cfg.Database.URL != "" {
		pg, err := pgstore.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		e.store, e.close = pg, pg.Close
	} else {
		mem, err := memstore.Load(filepath.Join(repo, snapshotPath))
		if err != nil {
			return nil, err
		}
		e.store, e.mem = mem, mem
	}
	e.svc = ingest.New(e.store, cfg, e.notifier, log)
	return e, nil
}

// openCommandEnv opens the env for cmd's --repo flag with a console logger.
func openCommandEnv(cmd *cobra.Command, repoDir string) (*env, error) {
	return openEnv(cmd.Context(), repoDir, logger.New())
}

// save persists the snapshot store. It is a no-op for PostgreSQL.
func (e *env) save() error {
	if e.mem == nil {
		return nil
	}
	if err := e.mem.Save(filepath.Join(e.repo, snapshotPath)); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	return nil
}

func addRepoFlag(cmd *cobra.Command, repoDir *string) {
	cmd.Flags().StringVar(repoDir, "repo", ".", "household directory")
}
