package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

func TestRecordScopeDecision(t *testing.T) {
	c := scopeDecisions.WithLabelValues("model", "false")
	before := testutil.ToFloat64(c)

	RecordScopeDecision(domain.ScopeDecision{Stage: domain.ScopeStageModel, InScope: false})

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordRunOutcome(t *testing.T) {
	c := runOutcomes.WithLabelValues("timeout")
	before := testutil.ToFloat64(c)

	RecordRunOutcome("timeout", 60*time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordChatRequest("http", 200)
	RecordFallback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `chatgate_chat_requests_total{status="200",transport="http"}`))
	assert.True(t, strings.Contains(string(body), "chatgate_resolve_fallbacks_total"))
}
