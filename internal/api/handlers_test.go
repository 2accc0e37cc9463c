package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Guizzs26/voting_registry/internal/api"
	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/registry"
	"github.com/Guizzs26/voting_registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	voterA = "0x00000000000000000000000000000000000000aa"
	voterB = "0x00000000000000000000000000000000000000bb"
	voterC = "0x00000000000000000000000000000000000000cc"
)

func newHandler(t *testing.T, opts ...registry.Opt) http.Handler {
	t.Helper()
	app := &api.App{
		Registry: registry.New(store.NewMemoryStore(), opts...),
		Log:      log.NewNopZapLogger(),
	}
	return app.Router(nil, []string{"*"})
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestVotingWindowEndpoints(t *testing.T) {
	h := newHandler(t)

	code, body := do(t, h, http.MethodGet, "/voting/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["closed"])

	code, body = do(t, h, http.MethodPost, "/voting/open", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Voting is opened now", body["message"])

	_, body = do(t, h, http.MethodGet, "/voting/status", "")
	assert.Equal(t, false, body["closed"])

	code, body = do(t, h, http.MethodPost, "/voting/close", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Voting is closed now", body["message"])
}

func TestOptionEndpoints(t *testing.T) {
	h := newHandler(t)

	code, body := do(t, h, http.MethodPost, "/options", `{"id": 1, "name": "Option 1"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Option succesfull Added", body["message"])

	code, body = do(t, h, http.MethodGet, "/options/1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Option 1", body["name"])

	code, _ = do(t, h, http.MethodGet, "/options/2", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/options/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/options", `{"name": "no id"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestVoteEndpoints(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/options", `{"id": 1, "name": "Option 1"}`)
	do(t, h, http.MethodPost, "/options", `{"id": 2, "name": "Option 2"}`)

	code, body := do(t, h, http.MethodGet, "/winner", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["error"])

	code, _ = do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterA+`", "option_id": 1}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterA+`", "option_id": 2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "This address has already voted", body["error"])

	code, body = do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterB+`", "option_id": 3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "This option is invalid", body["error"])

	code, _ = do(t, h, http.MethodPost, "/votes", `{"voter": "nope", "option_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterB+`", "option_id": 2}`)
	do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterC+`", "option_id": 2}`)

	_, body = do(t, h, http.MethodGet, "/options/1/votes", "")
	assert.Equal(t, float64(1), body["votes"])
	_, body = do(t, h, http.MethodGet, "/options/2/votes", "")
	assert.Equal(t, float64(2), body["votes"])
	_, body = do(t, h, http.MethodGet, "/options/3/votes", "")
	assert.Equal(t, float64(0), body["votes"])

	code, body = do(t, h, http.MethodGet, "/winner", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Option 2", body["winner"])

	_, body = do(t, h, http.MethodGet, "/voters/"+voterA, "")
	assert.Equal(t, true, body["voted"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/options", nil))
	assert.JSONEq(t, `[
		{"id": 1, "name": "Option 1", "votes": 1},
		{"id": 2, "name": "Option 2", "votes": 2}
	]`, rec.Body.String())
}

func TestVoteRejectedWhileClosedWhenEnforced(t *testing.T) {
	h := newHandler(t, registry.WithVotingWindow())
	do(t, h, http.MethodPost, "/options", `{"id": 1, "name": "Option 1"}`)

	code, body := do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterA+`", "option_id": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Voting is closed", body["error"])
}

func TestOversizedBodyRejected(t *testing.T) {
	h := newHandler(t)
	big := `{"id": 1, "name": "` + strings.Repeat("x", api.MaxBodyBytes) + `"}`

	code, body := do(t, h, http.MethodPost, "/options", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "request body too large", body["error"])

	code, _ = do(t, h, http.MethodGet, "/options/1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/votes", `{"voter": "`+voterA+`", "option_id": 1, "pad": "`+strings.Repeat("x", api.MaxBodyBytes)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}
