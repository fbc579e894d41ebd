package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samvad-hq/hero-records/internal/config"
	"github.com/samvad-hq/hero-records/internal/domain"
	"github.com/samvad-hq/hero-records/internal/heroes"
	"github.com/samvad-hq/hero-records/internal/logger"
	"github.com/samvad-hq/hero-records/internal/messages"
	"github.com/samvad-hq/hero-records/internal/storage"
	"github.com/samvad-hq/hero-records/pkg/httpclient"
	"github.com/samvad-hq/hero-records/pkg/publishers"
)

var _ heroes.MessageSink = (*messages.Service)(nil)

// App represents the hero client runtime. It wires the HTTP client, the
// message sink with its history store and publishers, and the hero service.
type App struct {
	cfg      *config.Config
	heroes   *heroes.Service
	messages *messages.Service
	store    storage.Store
	fanout   *publishers.Fanout
	metrics  *prometheus.Registry
	log      logger.Logger
	out      io.Writer
}

// New builds the runtime from config. Command results are written to out.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if out == nil {
		out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}

	storeOpts := storage.Options{
		MessageTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"message_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	a := &App{cfg: cfg, store: store, log: log, out: out}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.fanout = fanout

	a.messages = messages.NewService(messages.Options{
		Source:         cfg.AppName,
		Env:            cfg.Env,
		Store:          store,
		Publisher:      fanout,
		PublishTimeout: cfg.PublishTimeout,
	}, log)

	a.metrics = prometheus.NewRegistry()
	heroMetrics, err := heroes.NewMetrics(a.metrics)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	client := httpclient.NewRestyClient(httpclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
	})
	a.heroes, err = heroes.NewService(client, a.messages, log, heroes.Options{
		ResourcePath: cfg.HeroesPath,
		Metrics:      heroMetrics,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init hero service: %w", err)
	}

	return a, nil
}

// buildFanout loads the publishers file, if configured, and builds the enabled publishers.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run executes a single command and prints its result.
func (a *App) Run(ctx context.Context, cmd Command) error {
	if a == nil || a.heroes == nil {
		return fmt.Errorf("app is not initialized")
	}

	switch cmd.Name {
	case CmdList:
		res := a.heroes.ListAll(ctx)
		return a.finish(cmd, res.Value, res.Err)
	case CmdGet:
		res := a.heroes.GetByID(ctx, cmd.ID)
		return a.finish(cmd, res.Value, res.Err)
	case CmdSearch:
		// The service sends the term as given; escape it for the query string.
		res := a.heroes.SearchByName(ctx, url.QueryEscape(cmd.Term))
		return a.finish(cmd, res.Value, res.Err)
	case CmdCreate:
		res := a.heroes.Create(ctx, cmd.Hero)
		return a.finish(cmd, res.Value, res.Err)
	case CmdUpdate:
		res := a.heroes.Update(ctx, cmd.Hero)
		return a.finish(cmd, res.Value, res.Err)
	case CmdDelete:
		res := a.heroes.Delete(ctx, domain.ID(cmd.ID))
		return a.finish(cmd, res.Value, res.Err)
	case CmdMessages:
		history, err := a.messages.History(cmd.Limit)
		if err != nil {
			return fmt.Errorf("read message history: %w", err)
		}
		if history == nil {
			history = []storage.Message{}
		}
		return a.print(history)
	case CmdClearMessages:
		if err := a.messages.Clear(); err != nil {
			return fmt.Errorf("clear messages: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd.Name)
	}
}

// finish prints the value (or fallback) and reports a recovered failure as an error.
func (a *App) finish(cmd Command, value any, recovered error) error {
	if err := a.print(value); err != nil {
		return err
	}
	if recovered != nil {
		return fmt.Errorf("%s: request failed: %w", cmd.Name, recovered)
	}
	return nil
}

func (a *App) print(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(raw))
	return err
}

// Messages exposes the in-memory messages recorded during this run.
func (a *App) Messages() []string {
	if a == nil || a.messages == nil {
		return nil
	}
	return a.messages.Messages()
}

// Close exports metrics when configured and releases publishers and storage.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.metrics != nil && a.cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsTextfile, a.metrics); err != nil {
			a.log.ErrorObj("metrics export failed", "error", err)
		}
	}
	if err := a.fanout.Close(); err != nil {
		a.log.ErrorObj("publishers close failed", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
