// Package server serves the résumé over HTTP with gin. Every page load gets
// a server-side page view holding its language/theme state and fade-in latch;
// the browser drives both through small POST endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kataras/golog"
	"github.com/nikhilchitrapu/portfolio/internal/analytics"
	"github.com/nikhilchitrapu/portfolio/internal/config"
	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/fade"
	"github.com/nikhilchitrapu/portfolio/internal/logging"
	"github.com/nikhilchitrapu/portfolio/internal/site"
	"github.com/nikhilchitrapu/portfolio/internal/view"
	"github.com/pkg/errors"
)

const (
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

// Options are the dependencies of a Server. Analytics and Mailer may be nil.
type Options struct {
	Config    config.Config
	Store     *content.Store
	Analytics *analytics.Store
	Mailer    Mailer
	Logger    *golog.Logger
}

// Server owns the live page views and the HTTP routes.
type Server struct {
	cfg       config.Config
	store     *content.Store
	site      *site.Site
	views     *registry
	analytics *analytics.Store
	mailer    Mailer
	log       *golog.Logger
	admin     *adminAuth
	logSalt   string

	pair            [2]content.Language
	defaultLanguage content.Language
	resolver        *languageResolver
}

// New validates the language pair against the store and parses the templates.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server: nil content store")
	}
	if len(opts.Config.Languages) != 2 {
		return nil, errors.Errorf("server: need exactly two languages, got %q", opts.Config.Languages)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(opts.Config.LogLevel)
	}

	pair := [2]content.Language{
		content.Language(opts.Config.Languages[0]),
		content.Language(opts.Config.Languages[1]),
	}
	for _, lang := range pair {
		if !opts.Store.Has(lang) {
			return nil, errors.Wrapf(content.ErrUnknownLanguage, "server: language %q", lang)
		}
	}
	defaultLanguage := content.Language(opts.Config.DefaultLanguage)
	if defaultLanguage != pair[0] && defaultLanguage != pair[1] {
		defaultLanguage = pair[0]
	}

	pages, err := site.New(nil)
	if err != nil {
		return nil, err
	}

	salt, err := generateToken()
	if err != nil {
		return nil, err
	}

	ttl := opts.Config.ViewTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	s := &Server{
		cfg:             opts.Config,
		store:           opts.Store,
		site:            pages,
		views:           newRegistry(ttl, opts.Config.MaxViews),
		analytics:       opts.Analytics,
		mailer:          opts.Mailer,
		log:             logger,
		logSalt:         salt,
		pair:            pair,
		defaultLanguage: defaultLanguage,
		resolver:        newLanguageResolver(pair, defaultLanguage, opts.Config.NegotiateLanguage),
	}

	if opts.Analytics != nil && opts.Config.Admin.Password != "" {
		s.admin, err = newAdminAuth(opts.Config.Admin.Username, opts.Config.Admin.Password)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	if s.cfg.GinMode != "" {
		gin.SetMode(s.cfg.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Requests(s.log))
	if s.analytics != nil {
		r.Use(analytics.Middleware(s.analytics))
	}
	r.SetHTMLTemplate(s.site.Templates())

	r.StaticFS("/static", http.FS(site.StaticFS()))
	if s.cfg.ImagesDir != "" {
		r.Static("/images", s.cfg.ImagesDir)
	}

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "views": s.views.Len(), "evictions": s.views.Evictions()})
	})
	r.GET("/content/:lang", s.handleContent)
	r.GET("/resume.pdf", s.handleResume)
	r.POST("/contact", s.handleContact)

	views := r.Group("/views/:id")
	views.POST("/language", s.handleToggleLanguage)
	views.POST("/theme", s.handleToggleTheme)
	views.POST("/mount", s.handleMount)
	views.POST("/scroll", s.handleScroll)
	views.POST("/unmount", s.handleUnmount)

	s.setupAdminRoutes(r)
	return r
}

// Run serves until ctx is done, then shuts down gracefully and releases every page view.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	bg, stop := context.WithCancel(ctx)
	defer stop()
	go s.views.Run(bg, sweepInterval(s.views.ttl))
	if s.analytics != nil {
		go s.cleanupLoop(bg)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Server starting on :%s", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}

func sweepInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 4; interval > time.Second {
		return interval
	}
	return time.Second
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.analytics.Cleanup(ctx, s.cfg.Analytics.Retention)
			if err != nil {
				s.log.Errorf("Visit cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				s.log.Infof("Removed %d visits older than %s", deleted, s.cfg.Analytics.Retention)
			}
		}
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	lang := s.resolver.Resolve(c.Request)
	root := &view.RootClasses{}
	ctrl, err := view.NewController(s.store, s.pair, root,
		view.WithLanguage(lang),
		view.WithDarkMode(c.Query("theme") == view.DarkClass),
	)
	if err != nil {
		s.log.Errorf("Error creating page view: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	var pv *pageView
	engine := fade.NewEngine(view.SectionIDs,
		fade.WithOffset(s.cfg.FadeOffset),
		fade.WithRevealHook(func(id string) {
			s.log.Debugf("View %s revealed %s", pv.id, id)
		}),
	)
	pv = s.views.Create(ctrl, root, engine)

	c.Set(analytics.LanguageKey, string(lang))
	s.renderPage(c, "index.html", pv)
}

func (s *Server) renderPage(c *gin.Context, name string, pv *pageView) {
	page, err := pv.controller.Page(pv.engine.Visible)
	if err != nil {
		s.log.Errorf("Error building page: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.HTML(http.StatusOK, name, site.PageData{
		Page:           page,
		ViewID:         pv.id,
		StaticPath:     "/static",
		ImagesPath:     "/images",
		ResumeURL:      "/resume.pdf",
		FadeOffset:     s.cfg.FadeOffset,
		ContactEnabled: s.mailer != nil,
	})
}

// lookupView aborts with 410 for an unmounted view and 404 for an unknown one.
func (s *Server) lookupView(c *gin.Context) (*pageView, bool) {
	pv, err := s.views.Get(c.Param("id"))
	if errors.Is(err, ErrUnmounted) {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return pv, true
}

// trigger sets an HX-Trigger header carrying one event for the client.
func trigger(c *gin.Context, event string, detail any) {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err == nil {
		c.Header("HX-Trigger", string(payload))
	}
}

func (s *Server) handleToggleLanguage(c *gin.Context) {
	pv, ok := s.lookupView(c)
	if !ok {
		return
	}
	state := pv.controller.ToggleLanguage()
	s.log.Debugf("View %s switched to %s", pv.id, state.Language)
	trigger(c, "language-changed", map[string]string{"lang": string(state.Language)})
	s.renderPage(c, "page", pv)
}

func (s *Server) handleToggleTheme(c *gin.Context) {
	pv, ok := s.lookupView(c)
	if !ok {
		return
	}
	pv.controller.ToggleDarkMode()
	trigger(c, "theme-changed", map[string]bool{"dark": pv.root.Has(view.DarkClass)})
	s.renderPage(c, "page", pv)
}

func (s *Server) handleMount(c *gin.Context) {
	s.handleLayout(c, (*pageView).Mount)
}

func (s *Server) handleScroll(c *gin.Context) {
	s.handleLayout(c, (*pageView).Scroll)
}

func (s *Server) handleLayout(c *gin.Context, apply func(*pageView, fade.Layout) ([]string, error)) {
	pv, ok := s.lookupView(c)
	if !ok {
		return
	}

	var snap fade.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid layout"})
		return
	}
	if snap.Viewport <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "viewport must be positive"})
		return
	}

	visible, err := apply(pv, snap)
	if errors.Is(err, ErrUnmounted) {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": err.Error()})
		return
	}
	if visible == nil {
		visible = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"visible": visible})
}

func (s *Server) handleUnmount(c *gin.Context) {
	s.views.Remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleContent(c *gin.Context) {
	entry, err := s.store.Get(content.Language(c.Param("lang")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleResume(c *gin.Context) {
	if _, err := os.Stat(s.cfg.ResumePath); err != nil {
		c.String(http.StatusNotFound, "resume not available")
		return
	}
	c.FileAttachment(s.cfg.ResumePath, "resume.pdf")
}
