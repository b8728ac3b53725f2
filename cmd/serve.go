package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/notioncms/internal/cms"
	"github.com/yourorg/notioncms/internal/notion"
	"github.com/yourorg/notioncms/internal/render"
	"github.com/yourorg/notioncms/internal/webhook"
)

const (
	defaultServeListen    = ":8914"
	defaultWebhookPath    = "/webhook"
	serverReadTimeout     = 5 * time.Second
	serverWriteTimeout    = 30 * time.Second
	serverShutdownTimeout = 3 * time.Second
)

type serveOptions struct {
	listenAddr  string
	webhookPath string
	sanitize    bool
}

func newServeCmd(globals *globalOptions) *cobra.Command {
	opts := &serveOptions{
		listenAddr:  defaultServeListen,
		webhookPath: defaultWebhookPath,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered pages over HTTP and invalidate them from Notion webhooks",
		RunE:  opts.run(globals),
	}

	cmd.Flags().StringVar(&opts.listenAddr, "listen", opts.listenAddr, "Address to bind (host:port)")
	cmd.Flags().StringVar(&opts.webhookPath, "webhook-path", opts.webhookPath, "HTTP path receiving Notion webhooks")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Run served HTML through the sanitizing policy")

	return cmd
}

func (opts *serveOptions) run(globals *globalOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if opts.webhookPath == "" {
			opts.webhookPath = defaultWebhookPath
		}
		if !strings.HasPrefix(opts.webhookPath, "/") {
			opts.webhookPath = "/" + opts.webhookPath
		}

		rt, err := buildRuntime(globals)
		if err != nil {
			return err
		}
		defer func() { _ = rt.logger.Sync() }()

		if rt.settings.WebhookSecret == "" {
			rt.logger.Warn("webhook.secret is empty; deliveries without signature headers are accepted")
		}

		srv := newContentServer(rt.content(), rt.settings.WebhookSecret, rt.logger, opts.sanitize)
		return opts.listen(cmd.Context(), srv.router(opts.webhookPath), rt.logger)
	}
}

func (opts *serveOptions) listen(ctx context.Context, handler http.Handler, log *zap.Logger) error {
	server := &http.Server{
		Addr:              opts.listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: serverReadTimeout,
		WriteTimeout:      serverWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("content server: %w", err)
		}
		close(errCh)
	}()
	log.Info("serving content",
		zap.String("addr", server.Addr),
		zap.String("webhook_path", opts.webhookPath),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown content server: %w", err)
	}
	return nil
}

// contentServer exposes the content facade over HTTP and keeps its cache fresh from webhooks.
type contentServer struct {
	content  *cms.Client
	webhooks *webhook.Processor
	logger   *zap.Logger
	sanitize bool
}

func newContentServer(content *cms.Client, secret string, log *zap.Logger, sanitize bool) *contentServer {
	s := &contentServer{content: content, logger: log, sanitize: sanitize}
	s.webhooks = webhook.New(webhook.Config{
		Secret:           secret,
		OnPageUpdate:     s.invalidatePage,
		OnPageCreate:     s.invalidateCollections,
		OnPageDelete:     s.invalidatePage,
		OnDatabaseUpdate: s.invalidateCollections,
	}, webhook.WithLogger(log.Named("webhook")))

	for _, t := range []webhook.EventType{webhook.PageRestored, webhook.PageMoved} {
		s.webhooks.On(t, s.invalidatePage)
	}
	s.webhooks.On(webhook.Wildcard, s.logEvent)
	return s
}

func (s *contentServer) router(webhookPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/pages/{id}", s.handlePage)
	r.Get("/slugs/{slug}", s.handleSlug)
	r.Get("/collections", s.handleCollection)
	r.Method(http.MethodPost, webhookPath, s.webhooks.Handler())
	return r
}

func (s *contentServer) invalidatePage(_ context.Context, event webhook.Event) error {
	if event.Data.PageID != "" {
		s.content.InvalidatePage(event.Data.PageID)
	}
	s.content.InvalidateCollections()
	return nil
}

func (s *contentServer) invalidateCollections(_ context.Context, _ webhook.Event) error {
	s.content.InvalidateCollections()
	return nil
}

func (s *contentServer) logEvent(_ context.Context, event webhook.Event) error {
	s.logger.Info("webhook event",
		zap.String("type", string(event.Type)),
		zap.String("page_id", event.Data.PageID),
		zap.String("database_id", event.Data.DatabaseID),
	)
	return nil
}

func (s *contentServer) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.content.GetPage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writePage(w, r, page)
}

func (s *contentServer) handleSlug(w http.ResponseWriter, r *http.Request) {
	page, err := s.content.GetPageBySlug(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("database_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if page == nil {
		writeJSONError(w, http.StatusNotFound, "page not found")
		return
	}
	s.writePage(w, r, page)
}

func (s *contentServer) handleCollection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := cms.QueryOptions{StartCursor: q.Get("cursor")}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > cms.DefaultPageSize {
			writeJSONError(w, http.StatusBadRequest, "page_size must be between 1 and 100")
			return
		}
		opts.PageSize = size
	}

	collection, err := s.content.GetDatabase(r.Context(), q.Get("database_id"), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

func (s *contentServer) writePage(w http.ResponseWriter, r *http.Request, page *cms.PageContent) {
	html := page.HTML
	if s.sanitize {
		html = render.Sanitize(html)
	}

	switch r.URL.Query().Get("format") {
	case formatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	case formatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(page.Markdown))
	default:
		out := *page
		out.HTML = html
		writeJSON(w, http.StatusOK, &out)
	}
}

func (s *contentServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cms.ErrDatabaseIDRequired):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case notion.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "page not found")
	default:
		s.logger.Error("content request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSONError(w, http.StatusBadGateway, "upstream request failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = render.JSON(w, v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
