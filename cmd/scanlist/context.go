package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
	"github.com/JonMunkholm/ScanList/internal/config"
	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/logging"
)

// cliContext lazily loads configuration and opens the blob store once per
// invocation.
type cliContext struct {
	envFile *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	blobs blobstore.Store
	svc   *core.Service
}

func newCLIContext(envFile *string) *cliContext {
	return &cliContext{envFile: envFile}
}

func (c *cliContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.envFile); path != "" {
			if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = err
				return
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		// Logs go to stderr so command output stays clean.
		logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		c.config = cfg
	})
	return c.config, c.configErr
}

// service opens the store and builds a service over dec. dec may be nil
// for commands that never start a scan.
func (c *cliContext) service(ctx context.Context, dec core.Decoder) (*core.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	blobs, err := blobstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	c.blobs = blobs
	c.svc = core.NewService(blobs, dec, cfg)
	return c.svc, nil
}

func (c *cliContext) close() {
	if c.svc != nil {
		c.svc.Close()
		c.svc = nil
	}
	if c.blobs != nil {
		_ = c.blobs.Close()
		c.blobs = nil
	}
}
