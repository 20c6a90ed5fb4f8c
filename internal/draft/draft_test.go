package draft

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalsdr-engine/internal/domain"
)

var (
	hiringSig = domain.ConfirmedSignal{
		CandidateSignal: domain.CandidateSignal{Class: domain.ClassHiring, Keyword: "VP", MatchedText: "VP of Engineering"},
		Rank:            1,
	}
	acmeCtx = domain.CompanyContext{Name: "Acme", Domain: "acme.com", SignalType: "hiring"}
)

func TestParseReply(t *testing.T) {
	res, err := ParseReply(`{"subject_line": "Securing Acme's AI push", "body": "Hi there."}`)
	require.NoError(t, err)
	assert.True(t, res.IsDrafted())
	assert.Equal(t, "Securing Acme's AI push", res.Subject)

	res, err = ParseReply("```json\n{\"subject_line\": \"S\", \"body\": \"B\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, Drafted("S", "B"), res)

	res, err = ParseReply(`{"subject_line": null, "body": null}`)
	require.NoError(t, err)
	assert.Equal(t, KindNotGenuine, res.Kind)

	_, err = ParseReply("Sure! Here is your email")
	assert.Error(t, err)
}

func TestPromptByClass(t *testing.T) {
	sys, user := Prompt(hiringSig, acmeCtx)
	assert.Contains(t, sys, "hiring for VP of Engineering at Acme")
	assert.Contains(t, user, "Detected Role: VP of Engineering")

	p := domain.ConfirmedSignal{CandidateSignal: domain.CandidateSignal{
		Class: domain.ClassProspect, Category: "ev_transition",
		Headline: "Acme moves to EV", Snippet: "Battery plant announced",
	}}
	sys, _ = Prompt(p, acmeCtx)
	assert.Contains(t, sys, "ev transition development at Acme: Acme moves to EV: Battery plant announced")
}

func TestGuardCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGuard(2, time.Minute)
	g.now = func() time.Time { return now }

	g.RecordFailure()
	assert.True(t, g.Allow())
	g.RecordFailure()
	assert.False(t, g.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, g.Allow())

	g.RecordSuccess()
	assert.True(t, g.DisabledUntil().IsZero())
}

func fakeMessagesAPI(t *testing.T, status int, text string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		assert.Equal(t, "claude-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
			return
		}
		out, _ := json.Marshal(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
		_, _ = w.Write(out)
	}))
}

func newTestDrafter(t *testing.T, url string) *LLMDrafter {
	t.Helper()
	d, err := NewLLMDrafter(LLMConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "claude-test",
		MaxTokens:   256,
		Temperature: 0.7,
		MaxFailures: 1,
		Cooldown:    time.Hour,
	}, nil)
	require.NoError(t, err)
	return d
}

func TestLLMDrafterDrafted(t *testing.T) {
	var calls int32
	srv := fakeMessagesAPI(t, http.StatusOK, `{"subject_line":"Hello Acme","body":"Three sentences."}`, &calls)
	defer srv.Close()

	res, err := newTestDrafter(t, srv.URL).Draft(context.Background(), hiringSig, acmeCtx)
	require.NoError(t, err)
	assert.Equal(t, Drafted("Hello Acme", "Three sentences."), res)
}

func TestLLMDrafterNotGenuine(t *testing.T) {
	var calls int32
	srv := fakeMessagesAPI(t, http.StatusOK, `{"subject_line":null,"body":null}`, &calls)
	defer srv.Close()

	res, err := newTestDrafter(t, srv.URL).Draft(context.Background(), hiringSig, acmeCtx)
	require.NoError(t, err)
	assert.Equal(t, KindNotGenuine, res.Kind)
}

func TestLLMDrafterCoolsDownAfterFailure(t *testing.T) {
	var calls int32
	srv := fakeMessagesAPI(t, http.StatusBadRequest, "", &calls)
	defer srv.Close()

	d := newTestDrafter(t, srv.URL)
	_, err := d.Draft(context.Background(), hiringSig, acmeCtx)
	require.Error(t, err)

	before := atomic.LoadInt32(&calls)
	_, err = d.Draft(context.Background(), hiringSig, acmeCtx)
	assert.ErrorIs(t, err, ErrCoolingDown)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "no request while cooling down")
}

func TestNewLLMDrafterWithoutKey(t *testing.T) {
	_, err := NewLLMDrafter(LLMConfig{Model: "m"}, nil)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
