package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/glauncher/glauncher/internal/core"
)

func newInstanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Manage game instances",
	}
	cmd.AddCommand(newInstanceListCommand(), newInstanceCreateCommand(), newInstanceDeleteCommand())
	return cmd
}

func newInstanceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}
			for _, inst := range app.instances.List() {
				loaderInfo := string(inst.Loader)
				if inst.LoaderVer != "" {
					loaderInfo += " " + inst.LoaderVer
				}
				fmt.Printf("%-20s %-12s %s\n", inst.Name, inst.Version, loaderInfo)
			}
			return nil
		},
	}
}

func newInstanceCreateCommand() *cobra.Command {
	var version, loaderName, loaderVersion string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}

			loader := core.LoaderVanilla
			if loaderName != "" {
				loader = core.LoaderType(loaderName)
			}

			inst := &core.Instance{
				ID:        uuid.NewString(),
				Name:      args[0],
				Version:   version,
				Loader:    loader,
				LoaderVer: loaderVersion,
			}
			if err := app.instances.Create(inst); err != nil {
				return fmt.Errorf("creating instance: %w", err)
			}
			fmt.Printf("Created instance %q (%s)\n", inst.Name, inst.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Minecraft version (required)")
	cmd.Flags().StringVar(&loaderName, "loader", "", "Mod loader: fabric, forge, quilt, neoforge")
	cmd.Flags().StringVar(&loaderVersion, "loader-version", "", "Loader version (required unless vanilla)")
	cmd.MarkFlagRequired("version")

	return cmd
}

func newInstanceDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an instance",
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
			if err := app.instances.Delete(inst.ID); err != nil {
				return fmt.Errorf("deleting instance: %w", err)
			}
			fmt.Printf("Deleted instance %q\n", args[0])
			return nil
		},
	}
}
