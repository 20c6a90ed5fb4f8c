package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"signalsdr-engine/internal/domain"
)

var ErrCoolingDown = errors.New("drafting paused after repeated failures")

type LLMConfig struct {
	APIKey      string
	BaseURL     string // empty uses the SDK default
	Model       string
	MaxTokens   int
	Temperature float64
	MaxFailures int
	Cooldown    time.Duration
}

// LLMDrafter asks a Claude model for a {subject_line, body} JSON object.
// A null subject or body means the model judged the signal not genuine.
type LLMDrafter struct {
	client anthropic.Client
	cfg    LLMConfig
	guard  *Guard
	log    *zap.Logger
}

func NewLLMDrafter(cfg LLMConfig, log *zap.Logger) (*LLMDrafter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm drafter: %w", domain.ErrSourceUnavailable)
	}
	if cfg.Model == "" {
		return nil, errors.New("llm drafter: model is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &LLMDrafter{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		guard:  NewGuard(cfg.MaxFailures, cfg.Cooldown),
		log:    log,
	}, nil
}

func (d *LLMDrafter) Draft(ctx context.Context, sig domain.ConfirmedSignal, co domain.CompanyContext) (Result, error) {
	if !d.guard.Allow() {
		return Result{}, fmt.Errorf("%w until %s", ErrCoolingDown, d.guard.DisabledUntil().Format(time.RFC3339))
	}

	system, user := Prompt(sig, co)
	msg, err := d.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(d.cfg.Model),
		MaxTokens:   int64(d.cfg.MaxTokens),
		Temperature: anthropic.Float(d.cfg.Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		if ctx.Err() == nil {
			d.guard.RecordFailure()
		}
		return Result{}, fmt.Errorf("llm draft: %w", err)
	}
	d.guard.RecordSuccess()

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	res, err := ParseReply(text.String())
	if err != nil {
		return Result{}, err
	}
	d.log.Debug("draft generated",
		zap.String("company", co.Name),
		zap.String("type", co.SignalType),
		zap.Stringer("kind", res.Kind),
	)
	return res, nil
}

type reply struct {
	Subject *string `json:"subject_line"`
	Body    *string `json:"body"`
}

// ParseReply decodes the model's JSON answer. Markdown code fences around
// the object are tolerated.
func ParseReply(raw string) (Result, error) {
	raw = stripFences(strings.TrimSpace(raw))

	var r reply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Result{}, fmt.Errorf("llm returned invalid JSON: %w", err)
	}
	if r.Subject == nil || r.Body == nil ||
		strings.TrimSpace(*r.Subject) == "" || strings.TrimSpace(*r.Body) == "" {
		return NotGenuine("model declined to draft"), nil
	}
	return Drafted(strings.TrimSpace(*r.Subject), strings.TrimSpace(*r.Body)), nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
