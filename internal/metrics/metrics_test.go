package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/rewrite"
)

func TestRecordSentence(t *testing.T) {
	ok := sentences.WithLabelValues("semantic", StatusOK)
	failed := sentences.WithLabelValues("semantic", StatusFailed)
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordSentence(rewrite.ToSemantic, nil, 0.001)
	RecordSentence(rewrite.ToSemantic, errors.New("boom"), 0.001)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestRecordRewrite(t *testing.T) {
	c := reattachments.WithLabelValues("high_attach")
	before := testutil.ToFloat64(c)

	RecordRewrite(rewrite.ToDependency, rewrite.Stats{HighAttached: 3})

	assert.Equal(t, before+3, testutil.ToFloat64(c))
}

func TestHandler(t *testing.T) {
	RecordSentence(rewrite.ToDependency, nil, 0.0001)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "semconv_conversion_sentences_total"))
}
