// Command glauncher is a headless-first Minecraft launcher: a single CLI
// binary driving the launch pipeline, with a slim bubbletea progress view
// for the launch subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glauncher/glauncher/internal/auth"
	"github.com/glauncher/glauncher/internal/config"
	"github.com/glauncher/glauncher/internal/core"
)

// appContext lazily loads shared services so subcommands that don't need
// them (e.g. --help) stay cheap.
type appContext struct {
	cfg       *config.Config
	instances *core.InstanceManager
	accounts  *auth.Manager
}

func loadContext() (*appContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}

	instances := core.NewInstanceManager(cfg.DataDir)
	if err := instances.Load(); err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}

	accounts, err := auth.NewManager(cfg.MSAClientID)
	if err != nil {
		return nil, fmt.Errorf("opening account store: %w", err)
	}

	return &appContext{cfg: cfg, instances: instances, accounts: accounts}, nil
}

func main() {
	root := &cobra.Command{
		Use:   "glauncher",
		Short: "A headless Minecraft Java Edition launcher",
	}

	root.AddCommand(
		newLaunchCommand(),
		newInstanceCommand(),
		newAuthCommand(),
		newUpdateCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
