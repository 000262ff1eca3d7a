package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/assignment"
	"github.com/trezcool/learntrack/core/course"
	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
	"github.com/trezcool/learntrack/storage/files"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		UserSvc       user.Service
		CourseSvc     course.Service
		AssignmentSvc assignment.Service
		NotifSvc      notification.Service
		MessagingSvc  messaging.Service
		FileStore     files.Storage

		Logger core.Logger
		// SignalShutdown is called when an unrecoverable integrity error is
		// caught; the main goroutine owns the actual shutdown.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.BodyLimit("16M"))
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerCourseAPI(v1, jwt, s.opts.CourseSvc, s.opts.UserSvc)
	registerAssignmentAPI(v1, jwt, s.opts.AssignmentSvc, s.opts.UserSvc, s.opts.FileStore)
	registerNotificationAPI(v1, jwt, s.opts.NotifSvc, s.opts.UserSvc)
	registerMessagingAPI(v1, jwt, s.opts.MessagingSvc, s.opts.UserSvc)
	registerFileAPI(v1, jwt, s.opts.FileStore)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to LearnTrack API!")
}
