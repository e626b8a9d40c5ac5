package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"webdesk/pkg/config"
	"webdesk/pkg/geometry"
	"webdesk/pkg/hostimport"
	"webdesk/pkg/kvstore"
	"webdesk/pkg/logging"
	"webdesk/pkg/session"
	"webdesk/pkg/vfs"
	"webdesk/pkg/wm"
)

// env is everything a command needs. close releases it in reverse order.
type env struct {
	cfg     *config.Config
	session *session.Controller
	close   func()
}

// opener builds the env for a command invocation.
type opener func(c *cli.Context) (*env, error)

// openEnv loads configuration, sets up logging on stderr and opens the
// session stored in the data directory.
func openEnv(c *cli.Context) (*env, error) {
	dataDir := config.DataDir(c.String("data-dir"))
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	// stdout belongs to command output and the MCP transport.
	if err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: "stderr",
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	kv, err := kvstore.OpenSQLite(dataDir, kvstore.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctrl := session.New(background(c), sessionOptions(cfg, kv))
	return &env{
		cfg:     cfg,
		session: ctrl,
		close: func() {
			ctrl.Close()
			if err := kv.Close(); err != nil {
				logging.L().Warn("failed to close database", logging.Err(err))
			}
			_ = logging.Sync()
		},
	}, nil
}

// sessionOptions maps configuration onto the session.
func sessionOptions(cfg *config.Config, kv kvstore.Store) session.Options {
	return session.Options{
		KV:     kv,
		IDs:    vfs.NewIDGenerator(cfg.IDStrategy),
		Logger: logging.Named("session"),
		WM: wm.Config{
			Viewport: geometry.Size{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
			Limits: geometry.Limits{
				MinWidth:     cfg.MinWindowWidth,
				MinHeight:    cfg.MinWindowHeight,
				TopBarHeight: cfg.TopBarHeight,
			},
			OffsetBase:  cfg.OpenOffsetBase,
			OffsetRange: cfg.OpenOffsetRange,
		},
		Import:        hostimport.Options{MaxFileSize: cfg.MaxImportFileSize},
		ImportAllowed: cfg.ImportAllowed,
	}
}

// withEnv opens the env around a command action.
func withEnv(open opener, fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := open(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer e.close()
		return fn(c, e)
	}
}

// background returns the command context, or a fresh one when unset.
func background(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
