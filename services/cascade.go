// services/cascade.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kyipho/wikilynx/database"
	"github.com/kyipho/wikilynx/models"
)

// CascadeRunner executes the fixed downstream script after every table is refreshed.
type CascadeRunner struct {
	scriptPath string
	logger     *slog.Logger
}

// NewCascadeRunner runs the script at scriptPath, or the built-in
// database.DefaultCascadeScript when scriptPath is empty.
func NewCascadeRunner(scriptPath string, logger *slog.Logger) *CascadeRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &CascadeRunner{scriptPath: scriptPath, logger: logger}
}

func (c *CascadeRunner) name() string {
	if c.scriptPath == "" {
		return "setup.sql (built-in)"
	}
	return c.scriptPath
}

func (c *CascadeRunner) Run(ctx context.Context, tx database.Execer) error {
	script := database.DefaultCascadeScript
	if c.scriptPath != "" {
		b, err := os.ReadFile(c.scriptPath)
		if err != nil {
			return models.NewRefreshError(models.ErrCascade, "", fmt.Errorf("failed to read cascade script: %w", err))
		}
		script = string(b)
	}

	c.logger.Info("Service: attempting to run cascade script", "script", c.name())
	if err := database.ExecScript(ctx, tx, c.name(), script); err != nil {
		c.logger.Error("Service: cascade script failed", "script", c.name(), "error", err)
		return models.NewRefreshError(models.ErrCascade, "", err)
	}
	c.logger.Info("Service: ran cascade script", "script", c.name())
	return nil
}
