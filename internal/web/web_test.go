// ABOUTME: HTTP-level tests for the API and admin UI
// ABOUTME: Exercises routes end to end against a temp SQLite database

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/trapperkeeper/internal/auth"
	"github.com/solatis/trapperkeeper/internal/config"
	"github.com/solatis/trapperkeeper/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.Signer) {
	t.Helper()

	cfg := config.Default()
	cfg.Debug = true
	cfg.Database.URL = "sqlite://" + filepath.Join(t.TempDir(), "test.sqlite")
	cfg.Database.PoolSize = 4
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "hunter2"

	pool, err := store.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	signer := auth.NewSigner(cfg.Debug)
	srv := httptest.NewServer(New(pool, signer, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv, signer
}

// noRedirectClient returns a client that surfaces 3xx responses instead of
// following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sessionCookie(t *testing.T, signer *auth.Signer) *http.Cookie {
	t.Helper()
	_, signed, err := signer.Mint("admin")
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: signed}
}

func TestAPI_TrappLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	client := srv.Client()

	resp := postJSON(t, client, srv.URL+"/api/v1/trapp", map[string]string{"name": "sensor-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeJSON[store.Trapp](t, resp)
	assert.Equal(t, "sensor-a", created.Name)
	assert.NotZero(t, created.ID)

	resp, err := client.Get(fmt.Sprintf("%s/api/v1/trapp/%d", srv.URL, created.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON[store.Trapp](t, resp)
	assert.Equal(t, created, got)

	resp, err = client.Get(srv.URL + "/api/v1/trapp")
	require.NoError(t, err)
	list := decodeJSON[[]store.Trapp](t, resp)
	assert.Len(t, list, 1)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/trapp/%d", srv.URL, created.ID), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(fmt.Sprintf("%s/api/v1/trapp/%d", srv.URL, created.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Deleting again is still a success.
	resp, err = client.Do(req.Clone(req.Context()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_CreateTrappRejectsEmptyName(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.Client(), srv.URL+"/api/v1/trapp", map[string]string{"name": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_AuthTokens(t *testing.T) {
	srv, signer := newTestServer(t)
	client := srv.Client()

	resp := postJSON(t, client, srv.URL+"/api/v1/trapp", map[string]string{"name": "sensor-a"})
	trapp := decodeJSON[store.Trapp](t, resp)

	body := map[string]any{"trapp_id": trapp.ID, "name": "ingest"}
	resp = postJSON(t, client, fmt.Sprintf("%s/api/v1/trapp/%d/auth_token", srv.URL, trapp.ID), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decodeJSON[store.AuthToken](t, resp)
	assert.Len(t, tok.ID, 32)
	assert.Equal(t, trapp.ID, tok.TrappID)

	// Body trapp_id must match the path.
	mismatch := map[string]any{"trapp_id": trapp.ID + 1, "name": "ingest"}
	resp = postJSON(t, client, fmt.Sprintf("%s/api/v1/trapp/%d/auth_token", srv.URL, trapp.ID), mismatch)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown trapp is a 404.
	orphan := map[string]any{"trapp_id": trapp.ID + 99, "name": "ingest"}
	resp = postJSON(t, client, fmt.Sprintf("%s/api/v1/trapp/%d/auth_token", srv.URL, trapp.ID+99), orphan)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Scoped fetch works; a different trapp id does not see the token.
	resp, err := client.Get(fmt.Sprintf("%s/api/v1/trapp/%d/auth_token/%s", srv.URL, trapp.ID, tok.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(fmt.Sprintf("%s/api/v1/trapp/%d/auth_token/%s", srv.URL, trapp.ID+1, tok.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The unscoped route requires an admin session.
	resp, err = client.Get(fmt.Sprintf("%s/api/v1/auth_token/%s", srv.URL, tok.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/v1/auth_token/%s", srv.URL, tok.ID), nil)
	require.NoError(t, err)
	req.AddCookie(sessionCookie(t, signer))
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeJSON[store.AuthToken](t, resp)
	assert.Equal(t, tok, fetched)
}

func TestAPI_Rules(t *testing.T) {
	srv, _ := newTestServer(t)
	client := srv.Client()

	trappID := int64(7)
	resp := postJSON(t, client, srv.URL+"/api/v1/rule", map[string]any{
		"type": store.RuleTypeFilterTrapp, "name": "only trapp 7", "trapp_id": trappID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeJSON[ruleResponse](t, resp)
	assert.Equal(t, store.RuleTypeFilterTrapp, created.Type)
	require.NotNil(t, created.TrappID)
	assert.Equal(t, trappID, *created.TrappID)

	resp = postJSON(t, client, srv.URL+"/api/v1/rule", map[string]any{
		"type": store.RuleTypeFilterField, "name": "env filter", "field_key": "env", "field_value": "prod",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Missing variant payload is a 400.
	resp = postJSON(t, client, srv.URL+"/api/v1/rule", map[string]any{
		"type": store.RuleTypeFilterTrapp, "name": "no payload",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/v1/rule", map[string]any{
		"type": 42, "name": "mystery",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Get(srv.URL + "/api/v1/rule")
	require.NoError(t, err)
	list := decodeJSON[[]ruleResponse](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "only trapp 7", list[0].Name)
	require.NotNil(t, list[1].FieldKey)
	assert.Equal(t, "env", *list[1].FieldKey)
}

func TestAPI_CreateRuleDropsStrayFields(t *testing.T) {
	srv, _ := newTestServer(t)

	// Fields that do not belong to the variant are not echoed back.
	resp := postJSON(t, srv.Client(), srv.URL+"/api/v1/rule", map[string]any{
		"type": store.RuleTypeFilterTrapp, "name": "trapp only", "trapp_id": 3,
		"field_key": "stray", "field_value": "stray",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeJSON[ruleResponse](t, resp)
	require.NotNil(t, created.TrappID)
	assert.Equal(t, int64(3), *created.TrappID)
	assert.Nil(t, created.FieldKey)
	assert.Nil(t, created.FieldValue)
}

func TestAdmin_LoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	client := noRedirectClient()

	form := url.Values{"username": {"admin"}, "password": {"hunter2"}}
	resp, err := client.PostForm(srv.URL+"/admin/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/overview", resp.Header.Get("Location"))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, auth.SessionMaxAge, cookie.MaxAge)

	// The cookie grants access to gated pages.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/overview", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestAdmin_LoginRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	client := noRedirectClient()

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	resp, err := client.PostForm(srv.URL+"/admin/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/login?auth_failed=true", resp.Header.Get("Location"))
	for _, c := range resp.Cookies() {
		assert.NotEqual(t, auth.SessionCookieName, c.Name)
	}
}

func TestAdmin_PagesRequireSession(t *testing.T) {
	srv, _ := newTestServer(t)
	client := noRedirectClient()

	for _, path := range []string{"/admin/overview", "/admin/trapps", "/admin/trapp_create"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"), path)
		resp.Body.Close()
	}

	// A tampered cookie is treated like a missing one.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/trapps", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "not-a-session"})
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestAdmin_TrappCreate(t *testing.T) {
	srv, signer := newTestServer(t)
	client := noRedirectClient()
	cookie := sessionCookie(t, signer)

	form := url.Values{"name": {"from the ui"}}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/trapp_create", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/trapps", resp.Header.Get("Location"))

	// The trapp exists and carries its default token.
	listResp, err := srv.Client().Get(srv.URL + "/api/v1/trapp")
	require.NoError(t, err)
	trapps := decodeJSON[[]store.Trapp](t, listResp)
	require.Len(t, trapps, 1)
	assert.Equal(t, "from the ui", trapps[0].Name)

	tokResp, err := srv.Client().Get(fmt.Sprintf("%s/api/v1/trapp/%d/auth_token", srv.URL, trapps[0].ID))
	require.NoError(t, err)
	toks := decodeJSON[[]store.AuthToken](t, tokResp)
	require.Len(t, toks, 1)
	assert.Equal(t, defaultTokenName, toks[0].Name)
}

func TestAdmin_Logout(t *testing.T) {
	srv, signer := newTestServer(t)
	client := noRedirectClient()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/logout", nil)
	require.NoError(t, err)
	req.AddCookie(sessionCookie(t, signer))
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
