package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setAPIKeyReq struct {
	Key string `json:"key"`
}

// account maps a provider name to its env var and keyring account.
func (h SecretsHandler) account(provider string) (envVar, account string, ok bool) {
	cfg := h.CfgVal.Load().(config.Config)
	switch provider {
	case "brave":
		return secrets.BraveEnv, cfg.Search.KeyringAccount, true
	case "anthropic":
		return secrets.AnthropicEnv, cfg.Drafting.KeyringAccount, true
	}
	return "", "", false
}

func (h SecretsHandler) Status(w http.ResponseWriter, r *http.Request) {
	out := map[string]bool{}
	for _, p := range []string{"brave", "anthropic"} {
		env, acct, _ := h.account(p)
		out[p] = secrets.HasAPIKey(env, acct)
	}
	writeJSON(w, out)
}

// ByPath handles POST and DELETE on /api/secrets/{provider}.
func (h SecretsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	if !isLocal(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "local requests only")
		return
	}
	parts := pathParts(r.URL.Path, "/api/secrets/")
	if len(parts) != 1 {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}
	_, acct, ok := h.account(parts[0])
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown provider "+parts[0])
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req setAPIKeyReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
			return
		}
		if err := secrets.SetAPIKey(acct, req.Key); err != nil {
			WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store key: "+err.Error())
			return
		}
	case http.MethodDelete:
		if err := secrets.DeleteAPIKey(acct); err != nil {
			WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
			return
		}
	default:
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
