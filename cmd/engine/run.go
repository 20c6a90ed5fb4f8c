package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/state"
	"signalsdr-engine/internal/store"
)

type runFlags struct {
	dryRun       bool
	classes      []string
	prospectOnly bool
	noProspect   bool
	targets      string
	statePath    string
	categories   string
	only         []string
}

// resolveClasses combines --class, --prospect-only and --no-prospect.
func (f runFlags) resolveClasses() ([]domain.SignalClass, error) {
	if f.prospectOnly && f.noProspect {
		return nil, errors.New("--prospect-only and --no-prospect are mutually exclusive")
	}
	var out []domain.SignalClass
	for _, raw := range f.classes {
		c, err := domain.ParseSignalClass(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	switch {
	case len(out) > 0 && (f.prospectOnly || f.noProspect):
		return nil, errors.New("--class cannot be combined with --prospect-only or --no-prospect")
	case f.prospectOnly:
		out = []domain.SignalClass{domain.ClassProspect}
	case f.noProspect:
		out = []domain.SignalClass{domain.ClassHiring}
	}
	return out, nil
}

func newRunCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan every due target once and queue drafts",
		Long: `Scans the roster for hiring and prospect signals. Targets scanned within
the cooldown are skipped. Per-target failures are reported in the summary;
the command only exits non-zero when the run itself cannot continue.

Example:
  signalsdr run --dry-run
  signalsdr run --class prospect --only new_model,regulatory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := f.resolveClasses()
			if err != nil {
				return err
			}
			a, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			cfg := a.cfg
			if f.categories != "" {
				if err := config.OverlayCategories(&cfg, f.categories); err != nil {
					return fmt.Errorf("categories %s: %w", f.categories, err)
				}
			}
			targetsPath := cfg.App.Targets
			if f.targets != "" {
				targetsPath = f.targets
			}
			statePath := a.statePath()
			if f.statePath != "" {
				statePath = f.statePath
			}

			fs, err := state.NewFileStore(statePath)
			if err != nil {
				return err
			}
			e := &engine{state: fs, log: a.log}
			if !f.dryRun {
				db, err := store.Open(a.dbPath())
				if err != nil {
					return fmt.Errorf("open draft store: %w", err)
				}
				defer db.Close()
				e.db = db
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, err := e.scan(ctx, cfg, targetsPath, orchestrator.Options{
				Classes:    classes,
				Categories: f.only,
				DryRun:     f.dryRun,
				RequestID:  "cli",
			})
			if len(sum.Targets) > 0 {
				sum.WriteTable(cmd.OutOrStdout())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "scan only: no drafting, no state writes")
	cmd.Flags().StringSliceVar(&f.classes, "class", nil, "signal classes to scan (hiring, prospect)")
	cmd.Flags().BoolVar(&f.prospectOnly, "prospect-only", false, "skip the hiring scan")
	cmd.Flags().BoolVar(&f.noProspect, "no-prospect", false, "skip the prospect scan")
	cmd.Flags().StringVar(&f.targets, "targets", "", "roster CSV or YAML (default app.targets)")
	cmd.Flags().StringVar(&f.statePath, "state", "", "scan state file (default <data-dir>/db.json)")
	cmd.Flags().StringVar(&f.categories, "categories", "", "YAML file replacing the prospect category table")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "prospect category keys to search (default all)")
	return cmd
}
