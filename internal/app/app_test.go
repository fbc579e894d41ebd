package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/hero-records/internal/config"
	"github.com/samvad-hq/hero-records/internal/domain"
	"github.com/samvad-hq/hero-records/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heroesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/heroes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]domain.Hero{{ID: 11, Name: "Dr Nice"}, {ID: 12, Name: "Narco"}})
	})
	mux.HandleFunc("GET /api/heroes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AppName:        "hero-records",
		Env:            "test",
		APIBaseURL:     baseURL,
		HeroesPath:     "api/heroes",
		HTTPTimeout:    2 * time.Second,
		PublishTimeout: time.Second,
		StorageType:    "none",
	}
}

func TestRunListPrintsHeroes(t *testing.T) {
	srv := heroesServer(t)
	var out bytes.Buffer

	a, err := New(context.Background(), testConfig(srv.URL), nil, &out)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Run(context.Background(), Command{Name: CmdList}))

	var got []domain.Hero
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Narco", got[1].Name)
	assert.Equal(t, []string{"heroes fetched"}, a.Messages())
}

func TestRunRecoveredFailurePrintsFallback(t *testing.T) {
	srv := heroesServer(t)
	var out bytes.Buffer

	a, err := New(context.Background(), testConfig(srv.URL), nil, &out)
	require.NoError(t, err)
	defer a.Close()

	err = a.Run(context.Background(), Command{Name: CmdGet, ID: 99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, "null\n", out.String())
	assert.Equal(t, []string{"getHero id= 99 failed: http response status 404: not found"}, a.Messages())
}

func TestRunMultiWordSearchReachesBackend(t *testing.T) {
	var gotName string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/heroes/{$}", func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]domain.Hero{{ID: 11, Name: "Dr Nice"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cmd, err := ParseCommand([]string{"search", "dr", "ni"})
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := New(context.Background(), testConfig(srv.URL), nil, &out)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Run(context.Background(), cmd))
	assert.Equal(t, "dr ni", gotName)

	var got []domain.Hero
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Dr Nice", got[0].Name)
}

func TestRunBlankSearchPrintsEmptyList(t *testing.T) {
	var out bytes.Buffer
	a, err := New(context.Background(), testConfig("http://127.0.0.1:1"), nil, &out)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Run(context.Background(), Command{Name: CmdSearch, Term: " "}))
	assert.Equal(t, "[]\n", out.String())
	assert.Empty(t, a.Messages())
}

func TestRunMessageHistoryAndMetrics(t *testing.T) {
	srv := heroesServer(t)
	dir := t.TempDir()
	cfg := testConfig(srv.URL)
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(dir, "messages.db")
	cfg.MetricsTextfile = filepath.Join(dir, "heroes.prom")

	var out bytes.Buffer
	a, err := New(context.Background(), cfg, nil, &out)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), Command{Name: CmdList}))
	out.Reset()
	require.NoError(t, a.Run(context.Background(), Command{Name: CmdMessages, Limit: 10}))

	var history []storage.Message
	require.NoError(t, json.Unmarshal(out.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "heroes fetched", history[0].Text)

	require.NoError(t, a.Run(context.Background(), Command{Name: CmdClearMessages}))
	out.Reset()
	require.NoError(t, a.Run(context.Background(), Command{Name: CmdMessages}))
	assert.Equal(t, "[]\n", out.String())

	a.Close()

	raw, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `hero_requests_total{operation="list_all",outcome="success"} 1`)
}

func TestRunUnknownCommand(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://127.0.0.1:1"), nil, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.ErrorIs(t, a.Run(context.Background(), Command{Name: "fly"}), ErrUsage)
}

func TestNewRejectsBadPublishersFile(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load publishers registry")
}
