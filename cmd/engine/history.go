package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"signalsdr-engine/internal/state"
)

func newHistoryCommand() *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "history <target-id>",
		Short: "Show recorded signals for one target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if statePath == "" {
				statePath = a.statePath()
			}
			fs, err := state.NewFileStore(statePath)
			if err != nil {
				return err
			}

			rec, ok, err := fs.Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no scan record for %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) id=%s status=%s\n", rec.Name, rec.Domain, rec.ID, rec.Status)
			fmt.Fprintf(out, "last hiring scan:   %s\n", stamp(rec.LastScan))
			fmt.Fprintf(out, "last prospect scan: %s\n", stamp(rec.LastProspectScan))

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Date", "Type", "Details"})
			for _, s := range rec.Signals {
				t.AppendRow(table.Row{s.Date, s.Type, s.Details})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "scan state file (default <data-dir>/db.json)")
	return cmd
}

func stamp(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
