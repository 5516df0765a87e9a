package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"uk.co.dudmesh.nevermore/internal/model"
)

type attemptConnectionRequest struct {
	TargetUsername  string   `json:"target_username"`
	CurrentUsername string   `json:"current_username"`
	Answers         []string `json:"answers"`
}

// AttemptConnection runs one riddle attempt. A cooldown rejection answers
// 429 with enough information for the client to render a countdown.
func AttemptConnection(gate ConnectionGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &attemptConnectionRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}

		result, err := gate.Attempt(c.Request().Context(), params.CurrentUsername, params.TargetUsername, params.Answers)
		var rateLimited *model.RateLimitedError
		if errors.As(err, &rateLimited) {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"detail":              rateLimited.Error(),
				"retry_after_seconds": rateLimited.RetryAfterSeconds(),
			})
		}
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, result)
	}
}
