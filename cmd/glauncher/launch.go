package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/glauncher/glauncher/internal/launch"
	"github.com/glauncher/glauncher/internal/orchestrator"
	"github.com/glauncher/glauncher/internal/ui"
)

func newLaunchCommand() *cobra.Command {
	var offline, verify bool

	cmd := &cobra.Command{
		Use:   "launch <instance>",
		Short: "Launch a Minecraft instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}

			inst, ok := app.instances.FindByName(args[0])
			if !ok {
				return fmt.Errorf("no instance named %q", args[0])
			}

			statusChan := make(chan launch.Status, 16)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var launchErr error
			done := make(chan struct{})
			go func() {
				defer close(done)
				defer close(statusChan)
				launchErr = orchestrator.Run(ctx, orchestrator.Request{
					Instance:  inst,
					Offline:   offline,
					Verify:    verify,
					Config:    app.cfg,
					Instances: app.instances,
					Accounts:  app.accounts,
				}, nil, statusChan)
			}()

			model := ui.NewProgressModel(inst.Name, statusChan)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				return fmt.Errorf("progress view: %w", err)
			}
			<-done

			if launchErr != nil {
				return fmt.Errorf("launch failed: %w", launchErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "skip online authentication")
	cmd.Flags().BoolVar(&verify, "verify", false, "force SHA-1 re-verification of cached files")

	return cmd
}
