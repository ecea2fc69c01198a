package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/app"
	"github.com/tbourn/go-songcard-backend/internal/config"
	"github.com/tbourn/go-songcard-backend/internal/repo"
	"github.com/tbourn/go-songcard-backend/internal/sysutil"
)

type commandContext struct {
	envFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(envFlag *string) *commandContext {
	return &commandContext{envFlag: envFlag}
}

// ensureConfig loads the dotenv file, the configuration, and the process
// logger once per invocation.
func (c *commandContext) ensureConfig(logOut io.Writer) (config.Config, error) {
	c.configOnce.Do(func() {
		var paths []string
		if c.envFlag != nil && strings.TrimSpace(*c.envFlag) != "" {
			paths = append(paths, strings.TrimSpace(*c.envFlag))
		}
		if err := config.LoadDotEnv(paths...); err != nil {
			c.configErr = err
			return
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, logOut)
		c.config = cfg
	})
	return c.config, c.configErr
}

// openDB connects to the configured store and migrates the schema.
func (c *commandContext) openDB() (*gorm.DB, error) {
	db, err := repo.Open(c.config.DB.Driver, c.config.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.config.DB.Driver, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// withApp opens the store, wires the services, and runs fn.
func (c *commandContext) withApp(ctx context.Context, fn func(*app.App) error) error {
	db, err := c.openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	a, err := app.Build(ctx, c.config, db)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
