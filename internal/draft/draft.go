// Package draft turns a confirmed signal into an outreach draft for human
// review. Nothing here sends anything.
package draft

import (
	"context"

	"signalsdr-engine/internal/domain"
)

type Kind int

const (
	KindDrafted Kind = iota + 1
	KindNotGenuine
)

func (k Kind) String() string {
	switch k {
	case KindDrafted:
		return "drafted"
	case KindNotGenuine:
		return "not_genuine"
	}
	return "unknown"
}

// Result is either Drafted (subject and body set) or NotGenuine (the
// drafter judged the signal to be noise; Reason may say why).
type Result struct {
	Kind    Kind
	Subject string
	Body    string
	Reason  string
}

func Drafted(subject, body string) Result {
	return Result{Kind: KindDrafted, Subject: subject, Body: body}
}

func NotGenuine(reason string) Result {
	return Result{Kind: KindNotGenuine, Reason: reason}
}

func (r Result) IsDrafted() bool { return r.Kind == KindDrafted }

// Drafter is the drafting collaborator. An error means drafting failed;
// a NotGenuine result is not an error.
type Drafter interface {
	Draft(ctx context.Context, sig domain.ConfirmedSignal, co domain.CompanyContext) (Result, error)
}

// Func adapts a function to Drafter.
type Func func(ctx context.Context, sig domain.ConfirmedSignal, co domain.CompanyContext) (Result, error)

func (f Func) Draft(ctx context.Context, sig domain.ConfirmedSignal, co domain.CompanyContext) (Result, error) {
	return f(ctx, sig, co)
}
