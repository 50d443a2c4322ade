package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sigexhq/sigex-cli/internal/config"
	"github.com/sigexhq/sigex-cli/internal/fetch"
	"github.com/sigexhq/sigex-cli/internal/fetch/graph"
	"github.com/sigexhq/sigex-cli/internal/signal"
	"github.com/sigexhq/sigex-cli/internal/signal/index"
)

// cliEnv bundles everything a command needs: the loaded config, the
// signal type registry and the stores rooted in the state directory.
type cliEnv struct {
	cfg      *config.Config
	registry *signal.Registry
	collabs  *fetch.CollabStore
	states   *fetch.StateStore
	indexes  *index.Store
}

// stateSubdirs are created under the state directory on init and opened
// lazily by every other command.
func stateSubdirs(stateDir string) (collabDir, stateSubdir, indexDir string) {
	return filepath.Join(stateDir, "collaborations"),
		filepath.Join(stateDir, "state"),
		filepath.Join(stateDir, "indexes")
}

// loadEnv loads the config and opens the stores. It fails with a hint to
// run `sigex init` when the config does not exist yet.
func loadEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("sigex is not initialised; run 'sigex init' first")
		}
		return nil, err
	}

	reg, err := signal.NewRegistry()
	if err != nil {
		return nil, err
	}

	collabDir, stateSubdir, indexDir := stateSubdirs(cfg.StateDir)
	for _, dir := range []string{collabDir, stateSubdir, indexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}

	collabs, err := fetch.NewCollabStore(collabDir)
	if err != nil {
		return nil, err
	}
	states, err := fetch.NewStateStore(stateSubdir)
	if err != nil {
		return nil, err
	}
	indexes, err := index.NewStore(indexDir)
	if err != nil {
		return nil, err
	}
	return &cliEnv{cfg: cfg, registry: reg, collabs: collabs, states: states, indexes: indexes}, nil
}

// exchangeAPIs returns every configured exchange. The sample exchange is
// always available; the graph exchange joins when an access token is set.
func (e *cliEnv) exchangeAPIs() ([]fetch.ExchangeAPI, error) {
	apis := []fetch.ExchangeAPI{fetch.NewStaticSampleAPI(e.registry)}
	token, err := config.GetConfigValue("SIGEX_ACCESS_TOKEN")
	if err != nil {
		return nil, err
	}
	if token != "" {
		client := graph.NewClient(e.cfg.Graph.BaseURL, token)
		apis = append(apis, graph.NewAPI(client, e.registry))
	}
	return apis, nil
}

// acquireStateLock guards fetch and dataset mutations against concurrent
// sigex processes sharing one state directory.
func (e *cliEnv) acquireStateLock(timeout time.Duration) (func(), error) {
	lockPath := filepath.Join(e.cfg.StateDir, "state.lock")
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire state lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another sigex run is in progress (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
