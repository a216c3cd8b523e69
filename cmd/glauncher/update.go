package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glauncher/glauncher/internal/api"
)

func newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for newer Minecraft releases",
	}
	cmd.AddCommand(newUpdateCheckCommand())
	return cmd
}

func newUpdateCheckCommand() *cobra.Command {
	var instanceName string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a newer release exists for an instance's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}
			if instanceName == "" {
				return fmt.Errorf("--instance is required")
			}
			inst, ok := app.instances.FindByName(instanceName)
			if !ok {
				return fmt.Errorf("no instance named %q", instanceName)
			}

			mojang := api.NewMojangClient(app.cfg.DataDir)
			latest, err := mojang.GetLatestRelease(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching manifest: %w", err)
			}

			if latest == inst.Version {
				fmt.Printf("%s is up to date (%s)\n", inst.Name, inst.Version)
			} else {
				fmt.Printf("%s is on %s; latest release is %s\n", inst.Name, inst.Version, latest)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instanceName, "instance", "", "instance to check (required)")
	return cmd
}
