package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semconv/internal/apperr"
	"github.com/starford/semconv/internal/conllu"
	"github.com/starford/semconv/internal/convert"
)

func batch(t *testing.T, n int, bad ...int) []*conllu.Sentence {
	t.Helper()
	isBad := map[int]bool{}
	for _, b := range bad {
		isBad[b] = true
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "# sent_id = doc.%d\n", i+1)
		b.WriteString("1\tJohn\tJohn\tPROPN\t_\t_\t2\tnsubj\t_\t_\n")
		b.WriteString("2\tran\trun\tVERB\t_\t_\t0\troot\t_\t_\n")
		if isBad[i] {
			b.WriteString("3\t.\t.\tPUNCT\t_\t_\t7\tpunct\t_\t_\n")
		}
		b.WriteString("\n")
	}
	sents, err := conllu.ReadAll(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, sents, n)
	return sents
}

func quiet() Options {
	return Options{Workers: 4, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestToSemantic_KeepsOrderAndIsolatesFailures(t *testing.T) {
	results, err := ToSemantic(context.Background(), batch(t, 20, 3, 11), convert.New(), quiet())
	require.NoError(t, err)
	require.Len(t, results, 20)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, fmt.Sprintf("doc.%d", i+1), r.SentenceID)
	}

	failed := Failures(results)
	require.Len(t, failed, 2)
	assert.Equal(t, "doc.4", failed[0].SentenceID)
	assert.Equal(t, "doc.12", failed[1].SentenceID)
	assert.ErrorIs(t, failed[0].Err, apperr.ErrConversion)
	assert.Nil(t, failed[0].Value)

	graphs := Values(results)
	assert.Len(t, graphs, 18)
	assert.Equal(t, "doc.1", graphs[0].ID)
}

func TestToConllu_RoundTrip(t *testing.T) {
	conv := convert.New()
	graphs, err := ToSemantic(context.Background(), batch(t, 5), conv, quiet())
	require.NoError(t, err)

	out, err := ToConllu(context.Background(), Values(graphs), conv, quiet())
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, r := range out {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("doc.%d", i+1), r.Value.ID)
		require.Len(t, r.Value.Rows, 2)
		assert.Equal(t, 2, r.Value.Rows[0].Head)
		assert.Equal(t, 0, r.Value.Rows[1].Head)
	}
}

func TestToSemantic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ToSemantic(ctx, batch(t, 3), convert.New(), quiet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToSemantic_Empty(t *testing.T) {
	results, err := ToSemantic(context.Background(), nil, convert.New(), Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
