package heroes

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samvad-hq/hero-records/internal/domain"
	"github.com/samvad-hq/hero-records/internal/logger"
	"github.com/samvad-hq/hero-records/pkg/httpclient"
)

// DefaultResourcePath is the backend collection the service targets.
const DefaultResourcePath = "api/heroes"

// MessageSink records human-readable operation outcomes.
type MessageSink interface {
	Add(message string)
}

// Options controls the immutable configuration of a Service.
type Options struct {
	ResourcePath string
	Metrics      *Metrics
}

// Service performs hero CRUD calls against the backend. Request failures are
// recovered into fallback values; see Result.
type Service struct {
	client      httpclient.Client
	sink        MessageSink
	log         logger.Logger
	heroesURL   string
	jsonHeaders map[string]string
	metrics     *Metrics
}

// NewService wires the service with its HTTP client and message sink.
func NewService(client httpclient.Client, sink MessageSink, log logger.Logger, opts Options) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("message sink must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	path := strings.Trim(strings.TrimSpace(opts.ResourcePath), "/")
	if path == "" {
		path = DefaultResourcePath
	}

	return &Service{
		client:      client,
		sink:        sink,
		log:         log,
		heroesURL:   path,
		jsonHeaders: map[string]string{"Content-Type": "application/json"},
		metrics:     opts.Metrics,
	}, nil
}

// ListAll fetches every hero. Falls back to an empty slice.
func (s *Service) ListAll(ctx context.Context) Result[[]domain.Hero] {
	s.log.DebugObj("fetching heroes", "hero_request", map[string]any{"url": s.heroesURL})

	var heroes []domain.Hero
	if err := s.getJSON(ctx, s.heroesURL, &heroes); err != nil {
		return handleError(s, opListAll, "get heroes", []domain.Hero{}, err)
	}
	s.succeeded(opListAll, "heroes fetched")
	return Result[[]domain.Hero]{Value: nonNil(heroes)}
}

// GetByID fetches a single hero. Falls back to nil.
func (s *Service) GetByID(ctx context.Context, id int) Result[*domain.Hero] {
	var hero *domain.Hero
	if err := s.getJSON(ctx, s.heroURL(id), &hero); err != nil {
		return handleError[*domain.Hero](s, opGetByID, fmt.Sprintf("getHero id= %d", id), nil, err)
	}
	s.succeeded(opGetByID, fmt.Sprintf("hero fetched id= %d", id))
	return Result[*domain.Hero]{Value: hero}
}

// Update replaces a hero on the backend and returns the raw acknowledgement
// body. Falls back to nil.
func (s *Service) Update(ctx context.Context, hero domain.Hero) Result[json.RawMessage] {
	resp, err := s.client.Put(ctx, s.heroesURL, hero, s.jsonHeaders)
	if err == nil {
		err = httpclient.CheckStatus(resp)
	}
	if err != nil {
		return handleError[json.RawMessage](s, opUpdate, "updateHero", nil, err)
	}

	var ack json.RawMessage
	if body := resp.Body(); len(body) > 0 {
		ack = append(json.RawMessage(nil), body...)
	}
	s.succeeded(opUpdate, fmt.Sprintf("hero updated id=%d", hero.ID))
	return Result[json.RawMessage]{Value: ack}
}

// Create adds a hero. The id is left to the backend. Falls back to nil.
func (s *Service) Create(ctx context.Context, hero domain.Hero) Result[*domain.Hero] {
	resp, err := s.client.Post(ctx, s.heroesURL, hero.WithoutID(), s.jsonHeaders)
	if err == nil {
		err = httpclient.CheckStatus(resp)
	}
	var created *domain.Hero
	if err == nil {
		err = decodeBody(resp, &created)
	}
	if err != nil {
		return handleError[*domain.Hero](s, opCreate, "addHero", nil, err)
	}

	newID := 0
	if created != nil {
		newID = created.ID
	}
	s.succeeded(opCreate, fmt.Sprintf("added hero with id= %d", newID))
	return Result[*domain.Hero]{Value: created}
}

// Delete removes the hero named by ref (a domain.ID or a domain.Hero) and
// returns the backend's echo. Falls back to nil.
func (s *Service) Delete(ctx context.Context, ref domain.Ref) Result[*domain.Hero] {
	if h, ok := ref.(*domain.Hero); ref == nil || (ok && h == nil) {
		return handleError[*domain.Hero](s, opDelete, "deleteHero", nil, fmt.Errorf("hero reference is nil"))
	}
	id := ref.HeroID()
	resp, err := s.client.Delete(ctx, s.heroURL(id), s.jsonHeaders)
	if err == nil {
		err = httpclient.CheckStatus(resp)
	}
	var deleted *domain.Hero
	if err == nil {
		err = decodeBody(resp, &deleted)
	}
	if err != nil {
		return handleError[*domain.Hero](s, opDelete, "deleteHero", nil, err)
	}
	s.succeeded(opDelete, fmt.Sprintf("deleted hero id= %d", id))
	return Result[*domain.Hero]{Value: deleted}
}

// SearchByName returns heroes matching term. A blank term returns an empty
// slice without contacting the backend. The term is sent verbatim; callers
// escape it if needed.
func (s *Service) SearchByName(ctx context.Context, term string) Result[[]domain.Hero] {
	if strings.TrimSpace(term) == "" {
		return Result[[]domain.Hero]{Value: []domain.Hero{}}
	}

	var heroes []domain.Hero
	if err := s.getJSON(ctx, s.heroesURL+"/?name="+term, &heroes); err != nil {
		return handleError(s, opSearch, "searchHeroes", []domain.Hero{}, err)
	}

	if len(heroes) > 0 {
		s.succeeded(opSearch, fmt.Sprintf(`found heroes matching "%s"`, term))
	} else {
		s.succeeded(opSearch, fmt.Sprintf(`no heroes matching "%s"`, term))
	}
	return Result[[]domain.Hero]{Value: nonNil(heroes)}
}

func (s *Service) heroURL(id int) string {
	return s.heroesURL + "/" + strconv.Itoa(id)
}

func (s *Service) getJSON(ctx context.Context, url string, out any) error {
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return err
	}
	return decodeBody(resp, out)
}

func (s *Service) succeeded(op, message string) {
	s.metrics.observe(op, outcomeSuccess)
	s.sink.Add(message)
}

// decodeBody decodes a JSON body into out. An empty body leaves out untouched.
func decodeBody(resp httpclient.Response, out any) error {
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func nonNil(heroes []domain.Hero) []domain.Hero {
	if heroes == nil {
		return []domain.Hero{}
	}
	return heroes
}
