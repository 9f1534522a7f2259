package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/fichas/internal/app"
	"github.com/joseph-ayodele/fichas/internal/common"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	once   sync.Once
	app    *app.App
	appErr error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

// ensureApp loads .env and the configuration, then wires the pipeline once.
// CLI logs go to stderr so stdout stays clean for tables.
func (c *commandContext) ensureApp() (*app.App, error) {
	c.once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := common.LoadConfig(path)
		if err != nil {
			c.appErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Log.Level = *c.logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			c.appErr = err
			return
		}
		a := app.New(cfg, common.NewLogger(cfg.Log, os.Stderr))
		if err := a.EnsureDirs(); err != nil {
			c.appErr = err
			return
		}
		c.app = a
	})
	return c.app, c.appErr
}
