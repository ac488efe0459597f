package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/bootstrap"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/config"
)

// cli carries the flag/env view shared by every subcommand
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "pipelinectl",
		Short:         "Operate the pipeline stage engine",
		Long:          "pipelinectl inspects boards and dashboards, applies migrations and sweeps dangling entity refs directly against the engine database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	flags := root.PersistentFlags()
	flags.String("org", "", "organization id")
	flags.Bool("json", false, "output JSON")
	flags.String("db-driver", "", "database driver (mysql|sqlite), overrides DB_DRIVER")
	flags.String("sqlite-path", "", "sqlite database file, overrides SQLITE_PATH")
	for _, name := range []string{"org", "json", "db-driver", "sqlite-path"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		c.migrateCmd(),
		c.pipelinesCmd(),
		c.boardCmd(),
		c.dashboardCmd(),
		c.sweepCmd(),
		c.tokenCmd(),
	)
	return root
}

// config resolves the process configuration with flag overrides applied.
// The CLI never runs the background sweeper.
func (c *cli) config() *config.Config {
	cfg := config.Load()
	if d := c.v.GetString("db-driver"); d != "" {
		cfg.Database.Driver = strings.ToLower(d)
	}
	if p := c.v.GetString("sqlite-path"); p != "" {
		cfg.Database.SQLitePath = p
	}
	cfg.SweepSchedule = ""
	return cfg
}

func (c *cli) withApp(ctx context.Context, fn func(context.Context, *bootstrap.App) error) error {
	app, err := bootstrap.Open(ctx, c.config())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func (c *cli) org() (string, error) {
	org := c.v.GetString("org")
	if org == "" {
		return "", errMissingOrg
	}
	return org, nil
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
