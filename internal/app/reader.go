package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samvad-hq/newsfeed/internal/config"
	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/internal/enricher"
	"github.com/samvad-hq/newsfeed/internal/loader"
	"github.com/samvad-hq/newsfeed/internal/logger"
	"github.com/samvad-hq/newsfeed/internal/metrics"
	"github.com/samvad-hq/newsfeed/internal/storage"
	"github.com/samvad-hq/newsfeed/pkg/httpclient"
	"github.com/samvad-hq/newsfeed/pkg/newsapi"
	"github.com/samvad-hq/newsfeed/pkg/publishers"
)

// Reader is the newsfeed runtime. It owns the loader, runs the event loop that
// receives its deliveries, and forwards new items to the configured publishers.
type Reader struct {
	cfg      *config.Config
	log      logger.Logger
	loader   *loader.Loader
	enricher enricher.ArticleEnricher
	router   *publishers.Router
	store    storage.Store

	events  chan func()
	done    chan struct{}
	pubCtx  context.Context
	current []domain.NewsItem
}

// components are the collaborators a Reader is assembled from.
type components struct {
	fetcher    loader.Fetcher
	decoder    loader.Decoder
	enricher enricher.ArticleEnricher
	router   *publishers.Router
	store    storage.Store
}

// NewReader builds a reader runtime from config.
func NewReader(ctx context.Context, cfg *config.Config, log logger.Logger) (*Reader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	})

	router, err := buildRouter(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ItemTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = router.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"item_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var enr enricher.ArticleEnricher = enricher.Passthrough{}
	if cfg.EnrichArticles {
		enr = enricher.NewScraper(client, cfg.RequestHeaders(), cfg.EnrichDelay, log)
	}

	return newReader(ctx, cfg, log, components{
		fetcher:  newsapi.NewFetcher(client, cfg.RequestHeaders()),
		decoder:  newsapi.NewDecoder(),
		enricher: enr,
		router:   router,
		store:    store,
	}), nil
}

func newReader(ctx context.Context, cfg *config.Config, log logger.Logger, c components) *Reader {
	r := &Reader{
		cfg:      cfg,
		log:      logger.Ensure(log),
		enricher: c.enricher,
		router:   c.router,
		store:    c.store,
		events:   make(chan func()),
		done:     make(chan struct{}),
		pubCtx:   ctx,
	}
	if r.enricher == nil {
		r.enricher = enricher.Passthrough{}
	}
	if r.router == nil {
		r.router = publishers.NewRouter()
	}
	if r.store == nil {
		r.store, _ = storage.NewStore("none", "", storage.Options{})
	}
	r.loader = loader.New(c.fetcher, c.decoder,
		loader.WithDispatcher(r.dispatch),
		loader.WithLogger(r.log),
		loader.WithContext(ctx),
	)
	return r
}

func buildRouter(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Router, error) {
	if cfg.PublishersFile == "" {
		log.WarnObj("no publishers file configured; items are only logged", "publishers_file", "")
		return publishers.NewRouter(), nil
	}

	cfgs, err := publishers.LoadConfigs(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	router, err := publishers.OpenRouter(ctx, cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(cfgs))
	for _, pubCfg := range cfgs {
		summaries = append(summaries, map[string]any{
			"id":           pubCfg.ID,
			"type":         pubCfg.Type,
			"sections":     pubCfg.Sections,
			"skip_partial": pubCfg.SkipPartial,
		})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return router, nil
}

// Run starts a load, then serves loader deliveries and refresh ticks until ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	if r == nil || r.loader == nil {
		return fmt.Errorf("reader is not initialized")
	}
	r.pubCtx = ctx

	srv := r.startMetrics()
	defer r.shutdown(srv)

	r.log.InfoObj("reader loop starting", "reader_state", map[string]any{
		"sections":         r.cfg.Sections,
		"order_by":         r.cfg.SortOrder.String(),
		"page_size":        r.cfg.PageSize,
		"publishers_count": r.router.Len(),
		"refresh_interval": r.cfg.RefreshInterval.String(),
	})

	r.loader.Attach(r)
	r.startLoad()

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("reader loop exiting", "reason", ctx.Err().Error())
			return nil
		case fn := <-r.events:
			fn()
		case <-ticker.C:
			r.refresh()
		}
	}
}

// dispatch hands a loader delivery to the run loop. It gives up once the loop has stopped.
func (r *Reader) dispatch(fn func()) {
	select {
	case r.events <- fn:
	case <-r.done:
	}
}

func (r *Reader) startLoad() {
	if !r.loader.Start(r.cfg.LoaderConfig(), r.cfg.APIBaseURL) {
		r.log.DebugObj("load skipped; previous load still running", "loader_state", r.loader.State().String())
	}
}

// refresh drops the previous result and loads again.
func (r *Reader) refresh() {
	r.loader.Reset()
	r.startLoad()
}

// OnResult publishes items not seen before in this process.
func (r *Reader) OnResult(items []domain.NewsItem) {
	r.current = items
	partial := false
	if out, ok := r.loader.Outcome(); ok && out.Err != nil {
		partial = true
		r.log.WarnObj("some articles were skipped", "load_partial", map[string]any{
			"delivered": len(items),
			"skipped":   out.Err.Failed,
		})
	}
	if len(items) == 0 {
		r.log.InfoObj("nothing found", "load_result", map[string]any{
			"sections": r.cfg.Sections,
		})
		return
	}

	fresh := r.unseen(items)
	r.log.InfoObj("news items received", "load_result", map[string]any{
		"items": len(items),
		"new":   len(fresh),
	})
	if len(fresh) == 0 {
		return
	}

	for _, art := range r.enricher.Enrich(r.pubCtx, fresh) {
		r.publish(art, partial)
	}
}

// OnError logs a failed load, distinguishing an unreachable endpoint from a rejected
// or unusable response.
func (r *Reader) OnError(err *loader.LoadError) {
	fields := map[string]any{
		"kind":  err.Kind.String(),
		"error": err.Error(),
	}
	switch {
	case err.Offline():
		r.log.ErrorObj("news endpoint unreachable; check network connection", "load_error", fields)
	case err.Kind == loader.KindBadStatus:
		fields["status_code"] = err.StatusCode
		r.log.ErrorObj("news request failed", "load_error", fields)
	default:
		r.log.ErrorObj("news response unusable", "load_error", fields)
	}
}

// OnReset clears the items of the previous load.
func (r *Reader) OnReset() {
	r.current = nil
}

// Current returns the items of the last delivered load. It must be called from the run loop.
func (r *Reader) Current() []domain.NewsItem {
	return r.current
}

func (r *Reader) unseen(items []domain.NewsItem) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(items))
	for _, it := range items {
		seen, err := r.store.SeenItem(it.ID())
		if err != nil {
			r.log.WarnObj("seen-set lookup failed", "storage_error", map[string]any{
				"item_id": it.ID(),
				"error":   err.Error(),
			})
		}
		if !seen {
			out = append(out, it)
		}
	}
	return out
}

// publish routes the article to the matching publishers and marks it seen unless
// every matching publisher failed.
func (r *Reader) publish(art enricher.Article, partial bool) {
	evt := publishers.NewEvent(art.Item, art.Description, art.ImageURL)
	evt.Partial = partial
	r.log.InfoObj("news item", "news_item", map[string]any{
		"item_id":      evt.ItemID,
		"title":        art.Item.Title,
		"section":      art.Item.Section,
		"author":       art.Item.Author,
		"published_at": art.Item.PublishedAt,
		"url":          art.Item.URL,
	})

	d := r.router.Route(r.pubCtx, evt)
	switch {
	case d.Err != nil:
		metrics.PublishedEvents.WithLabelValues("error").Inc()
		r.log.WarnObj("publish failed", "publish_error", map[string]any{
			"item_id":   evt.ItemID,
			"matched":   d.Matched,
			"delivered": d.Delivered,
			"error":     d.Err.Error(),
		})
		if !d.Handled() {
			return
		}
	case d.Matched == 0 && r.router.Len() > 0:
		metrics.PublishedEvents.WithLabelValues("unrouted").Inc()
		r.log.DebugObj("no publisher accepts item", "publish_skip", map[string]any{
			"item_id": evt.ItemID,
			"section": art.Item.Section,
			"partial": partial,
		})
	case d.Delivered > 0:
		metrics.PublishedEvents.WithLabelValues("ok").Inc()
	}

	if err := r.store.MarkItem(evt.ItemID); err != nil {
		r.log.WarnObj("seen-set update failed", "storage_error", map[string]any{
			"item_id": evt.ItemID,
			"error":   err.Error(),
		})
	}
}

func (r *Reader) startMetrics() *http.Server {
	if r.cfg.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              r.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.ErrorObj("metrics server failed", "metrics_error", err.Error())
		}
	}()
	r.log.InfoObj("metrics server listening", "metrics_addr", r.cfg.MetricsAddr)
	return srv
}

// shutdown stops the loop first so a worker blocked in dispatch can exit, then
// releases the loader, publishers and store.
func (r *Reader) shutdown(srv *http.Server) {
	close(r.done)
	r.loader.Close()

	if err := r.router.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			r.log.ErrorObj("metrics server shutdown failed", "error", err.Error())
		}
	}
}
