package mediawiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers the handful of api.php calls the client makes.
type fakeAPI struct {
	t        *testing.T
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	calls    atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parse form: %v", err)
	}
	assert.Equal(f.t, "json", r.Form.Get("format"))
	assert.Equal(f.t, "2", r.Form.Get("formatversion"))
	assert.Equal(f.t, "test-agent", r.Header.Get("User-Agent"))
	key := r.Form.Get("action")
	if key == "query" && r.Form.Get("meta") == "tokens" {
		key = "tokens"
	}
	h, ok := f.handlers[key]
	if !ok {
		f.t.Errorf("unexpected action %q", key)
		writeJSON(w, map[string]any{"error": map[string]string{"code": "unexpected", "info": key}})
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func tokenHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.Form.Get("type")
	writeJSON(w, map[string]any{"query": map[string]any{"tokens": map[string]string{kind + "token": kind + "-tok+\\"}}})
}

func loginHandler(t *testing.T) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "bot@task", r.Form.Get("lgname"))
		assert.Equal(t, "login-tok+\\", r.Form.Get("lgtoken"))
		writeJSON(w, map[string]any{"login": map[string]string{"result": "Success", "lgusername": "Bot"}})
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		APIURL:     srv.URL + "/w/api.php",
		UserAgent:  "test-agent",
		Username:   "bot@task",
		Password:   "secret",
		MaxRetries: 3,
		RetryBase:  time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ReadExistingAndMissing(t *testing.T) {
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"query": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "main", r.Form.Get("rvslots"))
			switch r.Form.Get("titles") {
			case "Exists":
				writeJSON(w, map[string]any{
					"curtimestamp": "2026-01-02T03:04:05Z",
					"query": map[string]any{"pages": []any{map[string]any{
						"title": "Exists",
						"revisions": []any{map[string]any{
							"revid":     42,
							"timestamp": "2026-01-01T00:00:00Z",
							"slots":     map[string]any{"main": map[string]any{"content": ""}},
						}},
					}}},
				})
			default:
				writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{
					map[string]any{"title": r.Form.Get("titles"), "missing": true},
				}}})
			}
		},
	}
	c := newTestClient(t, api)

	p, err := c.Read(context.Background(), "Exists")
	require.NoError(t, err)
	assert.True(t, p.Exists)
	assert.Empty(t, p.Text)
	assert.Equal(t, int64(42), p.RevisionID)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.Timestamp)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), p.StartTimestamp)

	p, err = c.Read(context.Background(), "Gone")
	require.NoError(t, err)
	assert.False(t, p.Exists)
}

func TestClient_WriteRequiresLogin(t *testing.T) {
	c := newTestClient(t, &fakeAPI{t: t})
	_, err := c.Save(context.Background(), SaveRequest{Title: "X", Text: "y"})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestClient_LoginAndCreate(t *testing.T) {
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"tokens": tokenHandler,
		"login":  loginHandler(t),
		"edit": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "csrf-tok+\\", r.Form.Get("token"))
			assert.Equal(t, "1", r.Form.Get("createonly"))
			assert.Equal(t, "user", r.Form.Get("assert"))
			if r.Form.Get("title") == "Taken" {
				writeJSON(w, map[string]any{"error": map[string]string{"code": "articleexists", "info": "exists"}})
				return
			}
			writeJSON(w, map[string]any{"edit": map[string]any{"result": "Success", "newrevid": 7}})
		},
	}
	c := newTestClient(t, api)
	require.NoError(t, c.Login(context.Background()))

	res, err := c.Create(context.Background(), "New", "text", "Bot: create")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, int64(7), res.RevisionID)

	res, err = c.Create(context.Background(), "Taken", "text", "Bot: create")
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, OutcomeConflict, res.Outcome)
}

func TestClient_SaveNoChangeAndConflict(t *testing.T) {
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"tokens": tokenHandler,
		"login":  loginHandler(t),
		"edit": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2026-01-01T00:00:00Z", r.Form.Get("basetimestamp"))
			switch r.Form.Get("title") {
			case "Same":
				writeJSON(w, map[string]any{"edit": map[string]any{"result": "Success", "nochange": true}})
			default:
				writeJSON(w, map[string]any{"error": map[string]string{"code": "editconflict", "info": "conflict"}})
			}
		},
	}
	c := newTestClient(t, api)
	require.NoError(t, c.Login(context.Background()))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := c.Save(context.Background(), SaveRequest{Title: "Same", BaseTimestamp: base, Minor: true, Bot: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, res.Outcome)

	res, err = c.Save(context.Background(), SaveRequest{Title: "Busy", BaseTimestamp: base})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, OutcomeConflict, res.Outcome)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	var n atomic.Int32
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"query": func(w http.ResponseWriter, r *http.Request) {
			switch n.Add(1) {
			case 1:
				http.Error(w, "busy", http.StatusServiceUnavailable)
			case 2:
				writeJSON(w, map[string]any{"error": map[string]string{"code": "maxlag", "info": "lagged"}})
			default:
				writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{
					map[string]any{"title": "X", "missing": true},
				}}})
			}
		},
	}
	c := newTestClient(t, api)
	p, err := c.Read(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, p.Exists)
	assert.Equal(t, int32(3), n.Load())
}

func TestClient_PermanentAPIErrorNotRetried(t *testing.T) {
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"query": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"error": map[string]string{"code": "badvalue", "info": "nope"}})
		},
	}
	c := newTestClient(t, api)
	_, err := c.Read(context.Background(), "X")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "badvalue", apiErr.Code)
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestClient_RevisionCountFollowsContinue(t *testing.T) {
	api := &fakeAPI{t: t}
	api.handlers = map[string]func(http.ResponseWriter, *http.Request){
		"query": func(w http.ResponseWriter, r *http.Request) {
			switch r.Form.Get("prop") {
			case "revisions":
				assert.Equal(t, "max", r.Form.Get("rvlimit"))
				if r.Form.Get("rvcontinue") == "" {
					writeJSON(w, map[string]any{
						"continue": map[string]string{"rvcontinue": "next", "continue": "||"},
						"query":    map[string]any{"pages": []any{map[string]any{"revisions": []any{map[string]any{"revid": 1}, map[string]any{"revid": 2}}}}},
					})
					return
				}
				writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{map[string]any{"revisions": []any{map[string]any{"revid": 3}}}}}})
			case "deletedrevisions":
				writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{map[string]any{"deletedrevisions": []any{map[string]any{"revid": 9}}}}}})
			}
		},
	}
	c := newTestClient(t, api)
	live, err := c.RevisionCount(context.Background(), "Sandbox")
	require.NoError(t, err)
	assert.Equal(t, 3, live)
	deleted, err := c.DeletedRevisionCount(context.Background(), "Sandbox")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{APIURL: "not a url"})
	assert.Error(t, err)
}
