package heroes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/hero-records/internal/domain"
	"github.com/samvad-hq/hero-records/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heroBackend is an in-memory stand-in for the heroes API.
type heroBackend struct {
	mu       sync.Mutex
	heroes   map[int]domain.Hero
	requests int
}

func newHeroBackend(heroes ...domain.Hero) *heroBackend {
	b := &heroBackend{heroes: make(map[int]domain.Hero)}
	for _, h := range heroes {
		b.heroes[h.ID] = h
	}
	return b
}

func (b *heroBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/heroes", b.list)
	mux.HandleFunc("GET /api/heroes/{$}", b.list)
	mux.HandleFunc("GET /api/heroes/{id}", b.get)
	mux.HandleFunc("PUT /api/heroes", b.update)
	mux.HandleFunc("POST /api/heroes", b.create)
	mux.HandleFunc("DELETE /api/heroes/{id}", b.remove)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests++
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (b *heroBackend) sorted() []domain.Hero {
	out := make([]domain.Hero, 0, len(b.heroes))
	for _, h := range b.heroes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *heroBackend) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name := strings.ToLower(r.URL.Query().Get("name"))
	out := []domain.Hero{}
	for _, h := range b.sorted() {
		if name == "" || strings.Contains(strings.ToLower(h.Name), name) {
			out = append(out, h)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *heroBackend) get(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	h, ok := b.heroes[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "hero " + r.PathValue("id") + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (b *heroBackend) update(w http.ResponseWriter, r *http.Request) {
	var h domain.Hero
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	b.heroes[h.ID] = h
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *heroBackend) create(w http.ResponseWriter, r *http.Request) {
	var h domain.Hero
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.ID != 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "id must be assigned by the server"})
		return
	}
	next := 11
	for id := range b.heroes {
		if id >= next {
			next = id + 1
		}
	}
	h.ID = next
	b.heroes[h.ID] = h
	writeJSON(w, http.StatusCreated, h)
}

func (b *heroBackend) remove(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	h, ok := b.heroes[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "hero " + r.PathValue("id") + " not found"})
		return
	}
	delete(b.heroes, id)
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestServiceAgainstBackend(t *testing.T) {
	backend := newHeroBackend(
		domain.Hero{ID: 11, Name: "Dr Nice"},
		domain.Hero{ID: 12, Name: "Narco", Extra: map[string]json.RawMessage{"power": json.RawMessage(`"sleep"`)}},
		domain.Hero{ID: 15, Name: "Magneta"},
	)
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sink := &recordingSink{}
	client := httpclient.NewRestyClient(httpclient.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	svc, err := NewService(client, sink, nil, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	all := svc.ListAll(ctx)
	require.NoError(t, all.Err)
	assert.Len(t, all.Value, 3)

	narco := svc.GetByID(ctx, 12)
	require.NoError(t, narco.Err)
	assert.JSONEq(t, `"sleep"`, string(narco.Value.Extra["power"]))

	renamed := *narco.Value
	renamed.Name = "Narcoleptic"
	require.NoError(t, svc.Update(ctx, renamed).Err)
	assert.Equal(t, "Narcoleptic", svc.GetByID(ctx, 12).Value.Name)

	created := svc.Create(ctx, domain.Hero{Name: "Tornado"})
	require.NoError(t, created.Err)
	assert.Equal(t, 16, created.Value.ID)

	found := svc.SearchByName(ctx, "na")
	require.NoError(t, found.Err)
	assert.Len(t, found.Value, 2)

	deleted := svc.Delete(ctx, *created.Value)
	require.NoError(t, deleted.Err)
	assert.Equal(t, "Tornado", deleted.Value.Name)

	missing := svc.GetByID(ctx, 99)
	assert.True(t, missing.Recovered())
	assert.Nil(t, missing.Value)

	assert.Equal(t, []string{
		"heroes fetched",
		"hero fetched id= 12",
		"hero updated id=12",
		"hero fetched id= 12",
		"added hero with id= 16",
		`found heroes matching "na"`,
		"deleted hero id= 16",
		"getHero id= 99 failed: http response status 404: hero 99 not found",
	}, sink.messages)
}

func TestServiceBlankSearchNeverReachesBackend(t *testing.T) {
	backend := newHeroBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client := httpclient.NewRestyClient(httpclient.Options{BaseURL: srv.URL})
	svc, err := NewService(client, &recordingSink{}, nil, Options{})
	require.NoError(t, err)

	svc.SearchByName(context.Background(), "   ")

	assert.Equal(t, 0, backend.requests)
}
