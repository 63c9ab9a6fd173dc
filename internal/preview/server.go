// Package preview serves an HTML file with every tab container annotated and
// runs the widgets server-side: the browser forwards clicks and key presses
// over a websocket and applies the attribute and focus changes the widgets
// make.
package preview

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/errors"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
	"github.com/conneroisu/a11ytabs/internal/version"
	"github.com/conneroisu/a11ytabs/internal/watcher"
	"github.com/conneroisu/a11ytabs/internal/websocket"
)

// Routes served by the preview server.
const (
	PathPage   = "/"
	PathSocket = "/ws"
	PathHealth = "/healthz"
)

// idPrefix names panel ids generated while previewing.
const idPrefix = "a11ytabs-panel"

// Options configures a Server.
type Options struct {
	// Source is the HTML file to preview.
	Source         string
	Mount          tabs.MountOptions
	AllowedOrigins []string
	// Watch reloads connected pages when Source changes.
	Watch    bool
	Debounce time.Duration
	Limits   websocket.Limits
	Logger   logging.Logger
}

// Server is the preview HTTP server.
type Server struct {
	opts    Options
	source  string
	logger  logging.Logger
	hub     *websocket.WebSocketManager
	watcher *watcher.FileWatcher
	handler http.Handler

	serverMutex sync.Mutex
	httpServer  *http.Server
	started     time.Time
}

// New checks that the source file exists and prepares the routes.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "invalid source path")
	}
	if info, err := os.Stat(source); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "source file not found", err).
			WithContext("path", opts.Source)
	} else if info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotFound, "source is a directory").
			WithContext("path", opts.Source)
	}

	s := &Server{
		opts:    opts,
		source:  source,
		logger:  opts.Logger.WithComponent("preview"),
		started: time.Now(),
	}
	s.hub = websocket.NewWebSocketManager(
		websocket.NewAllowedOrigins(opts.AllowedOrigins),
		s.openSession,
		opts.Limits,
		opts.Logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc(PathSocket, s.hub.HandleWebSocket)
	mux.HandleFunc(PathHealth, s.handleHealth)
	mux.HandleFunc(PathPage, s.handlePage)
	s.handler = chain(mux, requestLogging(s.logger), allowMethods(http.MethodGet, http.MethodHead), securityHeaders)
	return s, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// load parses the source and mounts its widgets. observer, when set, is
// registered on the document element before mounting so it also sees the
// init notifications.
func (s *Server) load(observer dom.Listener) (*page, error) {
	f, err := os.Open(s.source)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "failed to open source", err).
			WithContext("path", s.source)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, err
	}
	if observer != nil {
		if root := doc.Root(); root != nil {
			tabs.Observe(root, observer)
		}
	}

	opts := s.opts.Mount
	opts.Config.IDs = tabs.SequentialIDs(idPrefix)
	if opts.Config.Logger == nil {
		opts.Config.Logger = s.opts.Logger
	}

	widgets, err := tabs.Mount(doc, opts)
	if err != nil {
		switch errors.GetCode(err) {
		case errors.ErrCodeNoContainers, errors.ErrCodeValidationFailed:
			// The page is still worth showing.
			s.logger.Warn(context.Background(), err, "Some tab containers were not mounted", "path", s.source)
		default:
			return nil, err
		}
	}
	return &page{doc: doc, widgets: widgets}, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathPage {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p, err := s.load(nil)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to render preview", "path", s.source)
		http.Error(w, "Failed to render preview: "+err.Error(), http.StatusInternalServerError)
		return
	}

	script := clientScript(clientConfig{
		Socket:       PathSocket,
		Health:       PathHealth,
		KeyAttribute: dom.KeyAttribute,
		Container:    containerSelector(s.opts.Mount),
	})
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(Page(p.doc, script),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			s.logger.Error(r.Context(), err, "Failed to write preview")
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Failed to render preview", http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

func containerSelector(opts tabs.MountOptions) string {
	if opts.ContainerSelector == "" {
		return tabs.DefaultContainerSelector
	}
	return opts.ContainerSelector
}

// openSession is the websocket session factory.
func (s *Server) openSession(ctx context.Context, client *websocket.Client) (websocket.Session, error) {
	logger := s.logger.With("client", client.ID())
	sess, err := newSession(s.load, client.Send, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Preview session opened", "widgets", len(sess.page.widgets))
	return sess, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, code := "healthy", http.StatusOK
	if s.hub.IsShutdown() {
		status, code = "shutting_down", http.StatusServiceUnavailable
	}
	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   version.Get().Short(),
		"source":    s.source,
		"clients":   s.hub.GetConnectedClients(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"watching":  s.watcher != nil,
	}
	if last := s.hub.LastActivity(); !last.IsZero() {
		health["last_activity"] = last.UTC()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

// startWatcher reloads connected pages whenever the source changes.
func (s *Server) startWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.opts.Debounce, s.opts.Logger)
	if err != nil {
		return err
	}
	if err := fw.WatchFile(s.source); err != nil {
		_ = fw.Stop()
		return err
	}
	fw.AddFilter(watcher.NoTempFilter)
	fw.AddHandler(s.handleFileChange)
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return err
	}
	s.watcher = fw
	return nil
}

func (s *Server) handleFileChange(events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Info(context.Background(), "Source changed, reloading clients",
			"path", event.Path,
			"event", event.Type.String())
		s.hub.BroadcastReload(event.Path)
	}
	return nil
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if s.opts.Watch {
		if err := s.startWatcher(ctx); err != nil {
			return err
		}
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "address", l.Addr().String(), "source", s.source)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(l)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.NewNetworkError(errors.ErrCodeInternal, "preview server failed", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewNetworkError(errors.ErrCodeInternal, "failed to listen on "+addr, err)
	}
	return s.Serve(ctx, l)
}

// Shutdown closes websocket clients, stops the watcher and drains HTTP
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	hubErr := s.hub.Shutdown(ctx)

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, err, "Failed to stop file watcher")
		}
	}

	s.serverMutex.Lock()
	server := s.httpServer
	s.serverMutex.Unlock()

	var err error
	if server != nil {
		err = server.Shutdown(ctx)
	}
	s.logger.Info(ctx, "Preview server stopped")
	if err != nil {
		return err
	}
	return hubErr
}
