package orchestrator

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"signalsdr-engine/internal/domain"
)

type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeEmpty   Outcome = "empty"
	OutcomeSignals Outcome = "signals"
	OutcomeFailed  Outcome = "failed"
)

// skip reasons
const (
	ReasonCooldown = "cooldown"
	ReasonNoSource = "no_source"
)

type ClassResult struct {
	Class        domain.SignalClass       `json:"class"`
	Outcome      Outcome                  `json:"outcome"`
	Reason       string                   `json:"reason,omitempty"`
	Signals      []domain.ConfirmedSignal `json:"signals,omitempty"`
	SourceErrors []string                 `json:"sourceErrors,omitempty"`
	Drafts       int                      `json:"drafts"`
	Filtered     int                      `json:"filtered"`
	DraftErrors  int                      `json:"draftErrors"`
	Recorded     bool                     `json:"recorded"`
}

type TargetResult struct {
	Target  domain.Target `json:"target"`
	Classes []ClassResult `json:"classes"`
}

// Stats mirrors the per-class counters printed at the end of a run.
type Stats struct {
	Scanned  int `json:"scanned"`
	Skipped  int `json:"skipped"`
	Signals  int `json:"signals"`
	Drafts   int `json:"drafts"`
	Filtered int `json:"filtered"`
	Errors   int `json:"errors"`
}

type Summary struct {
	StartedAt  time.Time                    `json:"startedAt"`
	FinishedAt time.Time                    `json:"finishedAt"`
	DryRun     bool                         `json:"dryRun"`
	Targets    []TargetResult               `json:"targets"`
	Stats      map[domain.SignalClass]Stats `json:"stats"`
}

func (s *Summary) tally() {
	s.Stats = make(map[domain.SignalClass]Stats)
	for _, tr := range s.Targets {
		for _, cr := range tr.Classes {
			st := s.Stats[cr.Class]
			switch cr.Outcome {
			case OutcomeSkipped:
				st.Skipped++
			case OutcomeFailed:
				st.Errors++
			case OutcomeEmpty, OutcomeSignals:
				st.Scanned++
			}
			st.Signals += len(cr.Signals)
			st.Drafts += cr.Drafts
			st.Filtered += cr.Filtered
			st.Errors += cr.DraftErrors
			s.Stats[cr.Class] = st
		}
	}
}

// WriteTable prints one row per target and class followed by the counters.
func (s Summary) WriteTable(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Target", "Class", "Outcome", "Signals", "Drafts", "Detail"})
	for _, tr := range s.Targets {
		for _, cr := range tr.Classes {
			t.AppendRow(table.Row{
				tr.Target.Name, cr.Class, cr.Outcome, len(cr.Signals), cr.Drafts, detail(cr),
			})
		}
	}
	t.Render()

	st := table.NewWriter()
	st.SetOutputMirror(w)
	st.SetStyle(table.StyleLight)
	st.AppendHeader(table.Row{"Class", "Scanned", "Skipped", "Signals", "Drafts", "Filtered", "Errors"})
	for _, c := range domain.AllClasses() {
		v, ok := s.Stats[c]
		if !ok {
			continue
		}
		st.AppendRow(table.Row{c, v.Scanned, v.Skipped, v.Signals, v.Drafts, v.Filtered, v.Errors})
	}
	st.Render()

	if s.DryRun {
		fmt.Fprintln(w, "dry run: no drafts generated, scan state unchanged")
	}
}

func detail(cr ClassResult) string {
	if cr.Reason != "" {
		return cr.Reason
	}
	if len(cr.Signals) > 0 {
		return cr.Signals[0].Summary()
	}
	return ""
}
