package store

import (
	"encoding/csv"
	"io"
)

var exportHeader = []string{
	"company", "domain", "signal_type", "signal", "draft_subject", "draft_body", "status", "url", "created_at",
}

// WriteDraftsCSV writes drafts in the review-sheet layout, header first.
func WriteDraftsCSV(w io.Writer, drafts []Draft) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, d := range drafts {
		if err := cw.Write([]string{
			d.Company, d.Domain, d.SignalType, d.Signal, d.Subject, d.Body, d.Status, d.SourceURL, d.CreatedAt,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
