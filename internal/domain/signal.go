package domain

import (
	"fmt"
	"strings"
)

type SignalClass string

const (
	ClassHiring   SignalClass = "hiring"
	ClassProspect SignalClass = "prospect"
)

func AllClasses() []SignalClass {
	return []SignalClass{ClassHiring, ClassProspect}
}

func ParseSignalClass(s string) (SignalClass, error) {
	c := SignalClass(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ClassHiring, ClassProspect:
		return c, nil
	}
	return "", fmt.Errorf("unknown signal class %q", s)
}

// Category is a prospect category key (new_model, regulatory, ...).
// The set of categories lives in configuration.
type Category string

// CandidateSignal is one detected occurrence before dedup and capping.
type CandidateSignal struct {
	Class SignalClass

	// hiring
	Keyword     string
	MatchedText string
	Line        int

	// prospect
	Category  Category
	Headline  string
	Snippet   string
	SourceURL string
}

// Summary is a short human-readable description used in logs and history.
func (c CandidateSignal) Summary() string {
	if c.Class == ClassHiring {
		if c.MatchedText != "" {
			return c.MatchedText
		}
		return c.Keyword
	}
	if c.Headline != "" {
		return c.Headline
	}
	return c.Snippet
}

// SignalType is the history/drafting label: "hiring" or "prospect_<category>".
func (c CandidateSignal) SignalType() string {
	if c.Class == ClassProspect {
		cat := string(c.Category)
		if cat == "" {
			cat = "unknown"
		}
		return "prospect_" + cat
	}
	return string(ClassHiring)
}

// ConfirmedSignal survived dedup and capping. Rank is 1-based.
type ConfirmedSignal struct {
	CandidateSignal
	Rank int
}
