package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)


func issue(t *testing.T, h *Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/issue?"+query, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.IssueToken(e.NewContext(req, rec)))
	return rec
}

func resolve(t *testing.T, h *Handler, raw string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/token/resolve?token="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ResolveToken(e.NewContext(req, rec)))
	return rec
}

func TestIssueAndResolveToken(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := issue(t, h, "assistant_id=asst_1&thread_id=thread_1")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, LaunchPath, loc.Path)
	raw := loc.Query().Get("token")
	require.NotEmpty(t, raw)

	rec = resolve(t, h, raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ResolveTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "asst_1", resp.AssistantID)
	assert.Equal(t, "thread_1", resp.ThreadID)
	assert.Equal(t, token.DefaultTitle, resp.Title)
}

func TestIssueToken_MissingIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := issue(t, h, "assistant_id=asst_1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueToken_NoSecret(t *testing.T) {
	h, _ := newTestHandler(t)
	h.tokens = token.NewIssuer("", 0)
	h.log = zerolog.Nop()

	rec := issue(t, h, "assistant_id=asst_1&thread_id=thread_1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestResolveToken_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Equal(t, http.StatusBadRequest, resolve(t, h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, resolve(t, h, "not.a.jwt").Code)

	other, err := token.NewIssuer("other-secret", 0).Issue(domain.LaunchClaims{AssistantID: "a", ThreadID: "t"})
	require.NoError(t, err)
	rec := resolve(t, h, other)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "invalid token"))
}
