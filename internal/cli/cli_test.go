package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/chatgate/internal/config"
	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/token"
)

func setMockEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CHATGATE_PROVIDER_MODE", "mock")
	t.Setenv("CHATGATE_RUN_POLL_INTERVAL", "10ms")
	t.Setenv("JWT_SECRET", "cli-secret")
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	setMockEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	app, err := NewApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestTokenIssueCommand(t *testing.T) {
	setMockEnv(t)

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "issue", "--assistant-id", "asst_1", "--thread-id", "thread_1"})
	require.NoError(t, cmd.Execute())

	claims, err := token.NewIssuer("cli-secret", 0).Resolve(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, domain.LaunchClaims{AssistantID: "asst_1", ThreadID: "thread_1", Title: token.DefaultTitle}, claims)
}

func TestThreadNewCommand(t *testing.T) {
	setMockEnv(t)

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"thread", "new", "--metadata", "source=cli"})
	require.NoError(t, cmd.Execute())

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "thread_"))
}

func TestChatClientAgainstServer(t *testing.T) {
	app := newTestApp(t)
	ts := httptest.NewServer(app.Server)
	t.Cleanup(ts.Close)

	thread, err := app.Service.CreateThread(context.Background(), nil)
	require.NoError(t, err)
	raw, err := app.Tokens.Issue(domain.LaunchClaims{AssistantID: "asst_1", ThreadID: thread.ThreadID, Title: "Model help"})
	require.NoError(t, err)

	client, err := DialChat("ws" + strings.TrimPrefix(ts.URL, "http") + "/ws")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Hello(raw))
	assert.Equal(t, "Model help", client.Session.Title)
	assert.Equal(t, thread.ThreadID, client.Session.ThreadID)

	var out bytes.Buffer
	in := strings.NewReader("dove trovo il conto economico?\n/quit\n")
	require.NoError(t, client.Loop(in, &out))

	assert.Contains(t, out.String(), `[MOCK] Received your message: "dove trovo il conto economico?"`)
	assert.Contains(t, out.String(), "Bye!")
}

func TestChatClientBadToken(t *testing.T) {
	app := newTestApp(t)
	ts := httptest.NewServer(app.Server)
	t.Cleanup(ts.Close)

	client, err := DialChat("ws" + strings.TrimPrefix(ts.URL, "http") + "/ws")
	require.NoError(t, err)
	defer client.Close()

	err = client.Hello("garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestNewApp_ScopePolicyFile(t *testing.T) {
	setMockEnv(t)
	t.Setenv("CHATGATE_SCOPE_POLICY_FILE", "/nonexistent/policy.yaml")
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = NewApp(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
