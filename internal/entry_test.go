package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/semconv/internal/testutil"
)

func TestOpenCore(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Corpus.Path = filepath.Join(dir, "corpus", "ud")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")

	c, err := openCore(context.Background(), cfg, testutil.Quiet())
	if err != nil {
		t.Fatalf("openCore: %v", err)
	}
	defer c.Close(context.Background(), testutil.Quiet())

	if info, err := os.Stat(cfg.Corpus.Path); err != nil || !info.IsDir() {
		t.Fatalf("corpus dir not created: %v", err)
	}
	if c.exporter != nil {
		t.Error("exporter should be off by default")
	}

	if _, err := c.svc.CreateFile(context.Background(), "en.conllu", []byte(testutil.SampleCoNLLU)); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := c.db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCorpusStats(t *testing.T) {
	st := testutil.TestStack(t)
	ctx := context.Background()
	_, _ = st.Service.CreateFile(ctx, "a.conllu", []byte(testutil.SampleCoNLLU))
	_, _ = st.Service.CreateFile(ctx, "b.conllu", []byte(testutil.BrokenCoNLLU))

	got, err := corpusStats(st.DB)()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := corpusTotals{Files: 2, Sentences: 3, Failed: 1}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestWriteStatus(t *testing.T) {
	w := httptest.NewRecorder()
	writeStatus(w, http.StatusServiceUnavailable, "index unavailable")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", w.Code)
	}
	if w.Body.String() != `{"status":"index unavailable"}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
	if err := RunMCP(context.Background()); err == nil {
		t.Error("RunMCP without config should fail")
	}
}
