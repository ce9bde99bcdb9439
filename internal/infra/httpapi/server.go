package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/roctbb/protocol-medsenger-bot/internal/app"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Server exposes the agent's webhook surface to the Medsenger core and
// the confirmation/status endpoints to the host UI.
type Server struct {
	echo          *echo.Echo
	contracts     *app.ContractService
	confirmations *app.ConfirmationService
	kick          func() // immediate dispatch after contract activation
	apiKey        string
	logger        *logrus.Logger
}

func NewServer(
	contracts *app.ContractService,
	confirmations *app.ConfirmationService,
	kick func(),
	apiKey string,
	logger *logrus.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:          e,
		contracts:     contracts,
		confirmations: confirmations,
		kick:          kick,
		apiKey:        apiKey,
		logger:        logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Webhooks carry the shared secret in the JSON body.
	s.echo.POST("/init", s.initContract)
	s.echo.POST("/remove", s.removeContract)
	s.echo.POST("/status", s.agentStatus)
	s.echo.POST("/actions", s.contractActions)
	s.echo.POST("/message", s.inboundMessage)

	// Browser-facing endpoints carry it as a query parameter.
	keyed := s.echo.Group("", s.requireQueryKey)
	keyed.GET("/settings", s.getSettings)
	keyed.POST("/settings", s.saveSettings)
	keyed.GET("/protocol/:id", s.protocolStatus)
	keyed.GET("/:role/event/:id", s.openEvent)
	keyed.POST("/:role/event/:id", s.saveEvent)

	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "waiting for the thunder!")
	})
}

// requireQueryKey guards endpoints opened from the Medsenger UI, which
// appends the agent's shared secret to every link.
func (s *Server) requireQueryKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam("api_key") != s.apiKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
		}
		return next(c)
	}
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// httpError maps service and repository errors onto HTTP statuses:
// validation problems are retryable 400s, unknown entities are 404s,
// everything else is a 500 with the detail kept in the logs.
func (s *Server) httpError(err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEventNotSubscribed):
		return echo.NewHTTPError(http.StatusNotFound, "this event no longer applies, the protocol was likely cancelled")
	case errors.Is(err, idb.ErrContractNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "contract not found")
	case errors.Is(err, idb.ErrProtocolNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "protocol not found")
	case errors.Is(err, idb.ErrEventNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	case errors.Is(err, idb.ErrEnrollmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "contract is not subscribed to this protocol")
	}
	s.logger.Errorf("Unhandled API error: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
