package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const notFoundMessage = "Not found"

// InternalErrorMessage is sent with every 500 response.
const InternalErrorMessage = "We have encountered an error and we were notified about it. We'll try to fix it as soon as possible"

// LegacyInternalErrorMessage reproduces the wording older clients match on.
const LegacyInternalErrorMessage = "We have encountered an error and we were notified about instanceof.\n      We'll try to fix it as soon as posible"

func respondNotFound(c echo.Context) error {
	return c.String(http.StatusNotFound, notFoundMessage)
}

// ErrorHandler answers errors that escape handlers and middleware. Unknown
// routes and methods become a plain "Not found"; client errors raised by
// middleware keep their status; anything else is an internal fault.
func ErrorHandler(logger *log.Logger, legacyMessage bool) echo.HTTPErrorHandler {
	internalMessage := InternalErrorMessage
	if legacyMessage {
		internalMessage = LegacyInternalErrorMessage
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
			var sendErr error
			switch he.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				sendErr = respondNotFound(c)
			default:
				sendErr = c.String(he.Code, http.StatusText(he.Code))
			}
			if sendErr != nil && logger != nil {
				logger.WithError(sendErr).Warn("write error response")
			}
			return
		}

		if logger != nil {
			logger.WithError(err).WithField("path", c.Request().URL.Path).Error("internal fault")
		}
		if sendErr := c.String(http.StatusInternalServerError, internalMessage); sendErr != nil && logger != nil {
			logger.WithError(sendErr).Warn("write error response")
		}
	}
}
