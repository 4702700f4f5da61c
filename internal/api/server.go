package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

func NewServer(cfg Config, log logger.Logger, l Ledger) Server {
	return newServer(cfg, log, l)
}

func newServer(cfg Config, log logger.Logger, l Ledger) *server {
	serveLog := log.With("api_http_server")
	cfg = cfg.withDefaults()

	fiberCfg := fiber.Config{
		ReadTimeout:             cfg.HTTP.ReadTimeout,
		WriteTimeout:            cfg.HTTP.WriteTimeout,
		IdleTimeout:             cfg.HTTP.IdleTimeout,
		BodyLimit:               cfg.HTTP.BodyLimit,
		DisableStartupMessage:   true,
		EnableTrustedProxyCheck: true,
		ProxyHeader:             cfg.Proxy.Header,
		TrustedProxies:          cfg.Proxy.Trusted,
		RequestMethods: []string{
			fiber.MethodGet,
			fiber.MethodHead,
			fiber.MethodPost,
			fiber.MethodPatch,
			fiber.MethodDelete,
		},
	}

	fiberCfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorResponse{Status: "ERROR", Message: fiberErr.Message})
		}

		serveLog.Warn(errors.WrapFail(err, "handle http request"))
		return c.Status(http.StatusInternalServerError).Send(nil)
	}

	s := &server{
		ledger:   l,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		http:     fiber.New(fiberCfg),
		addr:     cfg.HTTP.Addr,
		log:      serveLog,
	}

	s.setupRoutes()

	return s
}

type server struct {
	ledger   Ledger
	validate *validator.Validate
	http     *fiber.App
	addr     string
	log      logger.Logger
}

func (s *server) Serve(ctx context.Context) error {
	errCh := make(chan error)
	go func() { errCh <- s.http.Listen(s.addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return errors.Error("serve context done")
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	err := s.http.ShutdownWithContext(ctx)
	return errors.WrapFail(err, "shutdown http server")
}

func (s *server) setupRoutes() {
	bookings := s.http.Group("/bookings")
	bookings.Post("/", s.handlePropose)
	bookings.Get("/:id", s.handleGet)
	bookings.Delete("/:id", s.handleCancel)
	bookings.Patch("/:id", s.handleReschedule)

	resources := s.http.Group("/resources")
	resources.Get("/", s.handleResources)
	resources.Get("/available", s.handleAvailable)
	resources.Get("/:key/bookings", s.handleBookingsFor)
	resources.Get("/:key/check", s.handleCheck)
	resources.Get("/:key/suggest", s.handleSuggest)
	resources.Get("/:key/utilisation", s.handleUtilisation)

	s.http.Get("/stats/searches", s.handleSearches)
}

type errorResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Conflicts []ledger.Booking `json:"conflicts,omitempty"`
}

func (s *server) sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Status: "ERROR", Message: msg})
}

// sendLedgerError maps ledger errors to http statuses, everything else
// goes to the error handler.
func (s *server) sendLedgerError(c *fiber.Ctx, err error) error {
	var conflict *ledger.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.Status(http.StatusConflict).JSON(errorResponse{
			Status:    "ERROR",
			Message:   ledger.ErrConflict.Error(),
			Conflicts: conflict.Bookings,
		})
	case errors.Is(err, ledger.ErrDuplicateID):
		return s.sendError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return s.sendError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidInterval), errors.Is(err, ledger.ErrInvalidResource):
		return s.sendError(c, http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
