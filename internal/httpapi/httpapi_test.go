package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/events"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/state"
	"signalsdr-engine/internal/store"
)

type fixture struct {
	deps    Deps
	handler http.Handler
	db      *store.DB
	state   *state.MemoryStore
	lastOpt atomic.Value // orchestrator.Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "signalsdr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var cfgVal atomic.Value
	cfgVal.Store(config.Default())

	f := &fixture{db: db, state: state.NewMemoryStore()}
	f.deps = Deps{
		DB:      db.Pool,
		Hub:     events.NewHub(),
		CfgVal:  &cfgVal,
		LoadCfg: func() (config.Config, error) { return config.Default(), nil },
		State:   f.state,
		Scans:   &ScanTracker{},
		RunScan: func(ctx context.Context, opts orchestrator.Options) (orchestrator.Summary, error) {
			f.lastOpt.Store(opts)
			return orchestrator.Summary{
				DryRun: opts.DryRun,
				Stats:  map[domain.SignalClass]orchestrator.Stats{domain.ClassHiring: {Scanned: 1}},
			}, nil
		},
	}
	f.handler = NewHandler(f.deps)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = f.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanRunWaitParsesOptions(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/scan/run?wait=1&dry=1&class=prospect&category=new_model,regulatory", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	opts := f.lastOpt.Load().(orchestrator.Options)
	assert.True(t, opts.DryRun)
	assert.Equal(t, []domain.SignalClass{domain.ClassProspect}, opts.Classes)
	assert.Equal(t, []string{"new_model", "regulatory"}, opts.Categories)
	assert.NotEmpty(t, opts.RequestID)

	var sum orchestrator.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.True(t, sum.DryRun)

	st := f.deps.Scans.Status()
	assert.False(t, st.Running)
	assert.True(t, st.LastDryRun)
	assert.NotEmpty(t, st.LastOkAt)
	assert.Equal(t, 1, st.LastStats[domain.ClassHiring].Scanned)
}

func TestScanRunRejectsUnknownClass(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/scan/run?class=sales", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "bad_request", apiErr.Error.Code)
	assert.NotEmpty(t, apiErr.Error.RequestID)
}

func TestScanRunConflictsWhileRunning(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.deps.Scans.Begin(time.Now(), false))

	rec := f.do(t, http.MethodPost, "/scan/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/scan/status", "")
	assert.Contains(t, rec.Body.String(), `"running":true`)
}

func TestScanRunAsyncFinishes(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/scan/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		return !f.deps.Scans.Status().Running
	}, time.Second, 10*time.Millisecond)
}

func TestTargetHistory(t *testing.T) {
	f := newFixture(t)
	target := domain.Target{ID: "c_001", Name: "Acme", Domain: "acme.com"}
	sig := domain.ConfirmedSignal{CandidateSignal: domain.CandidateSignal{
		Class: domain.ClassHiring, Keyword: "VP", MatchedText: "VP of Engineering",
	}, Rank: 1}
	require.NoError(t, f.state.RecordScan(context.Background(), target, domain.ClassHiring, time.Now(), []domain.ConfirmedSignal{sig}))

	rec := f.do(t, http.MethodGet, "/targets/c_001/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "hiring", hist[0]["type"])

	rec = f.do(t, http.MethodGet, "/targets/acme.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"signal_found"`)

	rec = f.do(t, http.MethodGet, "/targets/c_404/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftsListAndReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sink := store.Sink{DB: f.db.Pool}
	target := domain.Target{ID: "c_001", Name: "Acme", Domain: "acme.com", CareersURL: "https://acme.com/careers"}
	sig := domain.ConfirmedSignal{CandidateSignal: domain.CandidateSignal{
		Class: domain.ClassHiring, Keyword: "VP", MatchedText: "VP of Engineering",
	}, Rank: 1}
	added, err := sink.SaveDraft(ctx, target, sig, "Subject", "Body")
	require.NoError(t, err)
	require.True(t, added)

	rec := f.do(t, http.MethodGet, "/drafts?status=pending_review", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var drafts []store.Draft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drafts))
	require.Len(t, drafts, 1)
	assert.Equal(t, "https://acme.com/careers", drafts[0].SourceURL)

	path := "/drafts/" + strconv.FormatInt(drafts[0].ID, 10) + "/status"
	rec = f.do(t, http.MethodPut, path, `{"status":"approved"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPut, path, `{"status":"sent"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/drafts/9999/status", `{"status":"REJECTED"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/drafts?status=APPROVED", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drafts))
	assert.Len(t, drafts, 1)
}

func TestRunsListEmpty(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/scan/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSecretsStoredInKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BRAVE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/secrets/brave", `{"key":"bsk-123"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/secrets", "")
	assert.JSONEq(t, `{"brave":true,"anthropic":false}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/secrets/openai", `{"key":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/secrets/brave", strings.NewReader(`{"key":"x"}`))
	req.RemoteAddr = "10.0.0.8:4000"
	remote := httptest.NewRecorder()
	f.handler.ServeHTTP(remote, req)
	assert.Equal(t, http.StatusForbidden, remote.Code)
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID, Recover(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?types=run.", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	assert.Contains(t, readData(), `"type":"ping"`)

	f.deps.Hub.Emit("req-1", events.DraftQueued, nil) // filtered out
	f.deps.Hub.Emit("req-1", events.RunStarted, map[string]any{"targets": 3})
	got := readData()
	assert.Contains(t, got, `"type":"run.started"`)
	assert.Contains(t, got, `"request_id":"req-1"`)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("set status: %w", store.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("load: %w", domain.ErrStateCorruption), http.StatusInternalServerError, "state_corrupted"},
		{domain.ErrMalformedInput, http.StatusBadRequest, "bad_request"},
		{context.Canceled, http.StatusServiceUnavailable, "canceled"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := errorStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestConfigPutSavesAndReloads(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	f.deps.UserCfgPath = path
	f.deps.LoadCfg = func() (config.Config, error) { return config.Load(path) }
	f.handler = NewHandler(f.deps)

	ch := f.deps.Hub.Subscribe(events.ConfigSaved)
	defer f.deps.Hub.Unsubscribe(ch)

	cfg := config.Default()
	cfg.Scan.CooldownHours = 12
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPut, "/config", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 12.0, got.Config.Scan.CooldownHours)
	assert.NotNil(t, got.Warnings)

	live := f.deps.CfgVal.Load().(config.Config)
	assert.Equal(t, 12.0, live.Scan.CooldownHours)
	assert.FileExists(t, path)
	assert.Equal(t, events.ConfigSaved, (<-ch).Type)

	rec = f.do(t, http.MethodPut, "/config", `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigValidateCandidate(t *testing.T) {
	f := newFixture(t)

	cfg := config.Default()
	cfg.Prospect.Categories = append(cfg.Prospect.Categories, cfg.Prospect.Categories[0])
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/config/validate", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	var vr config.Validation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vr))
	assert.False(t, vr.OK())

	rec = f.do(t, http.MethodGet, "/config/validate", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vr))
	assert.True(t, vr.OK(), vr.Errors)

	// a rejected PUT leaves the live config alone
	rec = f.do(t, http.MethodPut, "/config", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, f.deps.CfgVal.Load().(config.Config).Prospect.Categories, len(config.Default().Prospect.Categories))
}

func TestCheckpointIsLocalOnly(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/db/checkpoint", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"busy":false`)

	req := httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusForbidden, out.Code)

	rec = f.do(t, http.MethodGet, "/db/checkpoint", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCorsAndRequestIDSanitizing(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/scan/run", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("X-Request-ID", "ok-id.1")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok-id.1", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id\nwith newline", rec.Header().Get("X-Request-ID"))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 24)
}
