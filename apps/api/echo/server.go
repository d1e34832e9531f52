package echoapi

import (
	"context"
	"fmt"
	htmltmpl "html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/core/partnership"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	"github.com/Junosprite007/mod-equipmentcheckout/core/vcc"
	appfs "github.com/Junosprite007/mod-equipmentcheckout/fs"
)

type ServerDeps struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc        user.Service
	Importer       *family.Importer
	PartnershipSvc *partnership.Service
	AgreementSvc   *agreement.Service
	VCCSvc         *vcc.Service

	Gatherer prometheus.Gatherer // optional, prometheus.DefaultGatherer by default
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true
	s.app.Renderer = &templateRenderer{
		tmpl: htmltmpl.Must(htmltmpl.ParseFS(appfs.FS, "templates/web/*.gohtml")),
	}

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.app.Group("/api")
	a := auth{conf: conf, users: s.deps.UserSvc}
	jwt := middleware.JWTWithConfig(a.jwtConfig())

	registerUserAPI(api, jwt, a, s.deps.Validate)
	registerFamilyAPI(api, jwt, s.deps.UserSvc, s.deps.Importer, s.deps.Translator, conf)
	registerPartnershipAPI(api, jwt, s.deps.UserSvc, s.deps.PartnershipSvc)
	registerAgreementAPI(api, jwt, s.deps.UserSvc, s.deps.AgreementSvc)
	registerVCCAPI(api, jwt, s.deps.UserSvc, s.deps.VCCSvc, s.deps.Translator, !conf.Debug)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	addr := s.deps.Conf.Server.Address()
	s.deps.Logger.Info(fmt.Sprintf("API listening on %s", addr))
	if err := s.app.Start(addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports the errors that stopped the server.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal reports OS signals and internal requests to shut down.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signalled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

type templateRenderer struct {
	tmpl *htmltmpl.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
