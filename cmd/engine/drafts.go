package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"signalsdr-engine/internal/store"
)

func newDraftsCommand() *cobra.Command {
	var opts store.ListDraftsOpts

	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Review the queue of generated drafts",
	}
	cmd.PersistentFlags().StringVar(&opts.Status, "status", "", "PENDING_REVIEW, APPROVED or REJECTED")
	cmd.PersistentFlags().StringVar(&opts.TargetID, "target", "", "target id")
	cmd.PersistentFlags().StringVar(&opts.Window, "window", "all", "24h, 7d or all")
	cmd.PersistentFlags().IntVar(&opts.Limit, "limit", 100, "max drafts")

	list := func(cmd *cobra.Command) ([]store.Draft, error) {
		a, err := setup()
		if err != nil {
			return nil, err
		}
		db, err := store.Open(a.dbPath())
		if err != nil {
			return nil, err
		}
		defer db.Close()
		q := opts
		q.Status = strings.ToUpper(q.Status)
		return store.ListDrafts(cmd.Context(), db.Pool, q)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print queued drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := list(cmd)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Company", "Type", "Subject", "Status", "Created"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Name: "Subject", WidthMax: 60, WidthMaxEnforcer: text.Trim},
			})
			for _, d := range drafts {
				t.AppendRow(table.Row{d.ID, d.Company, d.SignalType, d.Subject, d.Status, d.CreatedAt})
			}
			t.Render()
			return nil
		},
	})

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write queued drafts to a CSV review sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := list(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := store.WriteDraftsCSV(w, drafts); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d drafts to %s\n", len(drafts), out)
			}
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "drafts_output.csv", "output file, - for stdout")
	cmd.AddCommand(export)

	var days int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete reviewed drafts older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			a, err := setup()
			if err != nil {
				return err
			}
			db, err := store.Open(a.dbPath())
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := store.CleanupOldDrafts(cmd.Context(), db.Pool, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d drafts\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&days, "days", 30, "age in days")
	cmd.AddCommand(prune)

	return cmd
}
