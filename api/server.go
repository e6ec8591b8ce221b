package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

const defaultBodyLimit = "64K"

// Options tunes the HTTP surface built by New.
type Options struct {
	// BodyLimit caps request bodies, in echo size notation ("64K", "1M").
	BodyLimit string
	// LegacyErrorMessage selects LegacyInternalErrorMessage for 500 responses.
	LegacyErrorMessage bool
}

// New builds an Echo instance serving the todo API backed by store.
func New(store Storage, logger *log.Logger, opts Options) *echo.Echo {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = defaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = SonicSerializer{}
	e.HTTPErrorHandler = ErrorHandler(logger, opts.LegacyErrorMessage)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestMetrics(logger))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll:     true,
		DisableErrorHandler: true,

		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.WithError(err).WithField("stack", string(stack)).Error("handler panic recovered")
			return err
		},
	}))
	// Decompress wraps the body first so the limit counts inflated bytes.
	e.Use(middleware.Decompress())
	e.Use(middleware.BodyLimit(opts.BodyLimit))

	Register(e, store, logger)
	return e
}
