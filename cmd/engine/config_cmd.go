package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"signalsdr-engine/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the engine configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file and print errors and warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			_, vr := config.NormalizeAndValidate(cfg)

			out := cmd.OutOrStdout()
			for _, w := range vr.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			for _, e := range vr.Errors {
				fmt.Fprintln(out, "error:", e)
			}
			if !vr.OK() {
				return fmt.Errorf("%s: %d error(s)", path, len(vr.Errors))
			}
			fmt.Fprintf(out, "%s: ok\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := loadConfig()
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	})
	return cmd
}
