package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"vtfitness_api/internal/services"
)

// CustomErrorHandler translates domain errors into JSON responses.
// Service-layer error kinds map to stable HTTP codes; everything else
// is a 500 with the detail kept out of the response body.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var (
		validationErr  *services.ValidationError
		notFoundErr    *services.NotFoundError
		conflictErr    *services.ConflictError
		persistenceErr *services.PersistenceError
		degradedErr    *services.DependencyDegraded
		httpErr        *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		message = validationErr.Error()
	case errors.As(err, &notFoundErr):
		code = http.StatusNotFound
		message = notFoundErr.Error()
	case errors.As(err, &conflictErr):
		code = http.StatusConflict
		message = conflictErr.Error()
	case errors.As(err, &persistenceErr):
		code = http.StatusInternalServerError
		message = "storage failure"
	case errors.As(err, &degradedErr):
		code = http.StatusServiceUnavailable
		message = degradedErr.Dependency + " unavailable"
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	c.Logger().Error(err)

	if sendErr := c.JSON(code, map[string]string{"error": message}); sendErr != nil {
		c.Logger().Error(sendErr)
	}
}
