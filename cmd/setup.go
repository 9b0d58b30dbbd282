package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Configuration written to %s\n", r.configPath)
	r.writePlain("Fill in [credentials.soundcloud] or set TWHISPR_* environment variables.\n")
	return nil
}

// SetupDatabase initializes the journal database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(false)
	if err != nil {
		return err
	}
	if config.Database.Path == "" {
		return fmt.Errorf("%w: set database.path in %s to enable the journal", shared.ErrMissingConfig, r.configPath)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	if _, err := r.openJournal(); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}
