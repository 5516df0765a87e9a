package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"uk.co.dudmesh.nevermore/internal/model"
	"uk.co.dudmesh.nevermore/internal/service/connection"
)

type UserService interface {
	Register(ctx context.Context, params *model.RegisterUserParams) (*model.User, error)
	Authenticate(username, password string) (*model.User, string, error)
	VerifyToken(token string) (string, error)
	Fetch(id model.UserID) (*model.User, error)
	List() ([]model.PublicUser, error)
}

type ConnectionGate interface {
	Attempt(ctx context.Context, requesterUsername, targetUsername string, answers []string) (*connection.Result, error)
}

type ChatService interface {
	Send(senderUsername, recipientUsername, content string) (*model.Message, error)
	History(usernameA, usernameB string) ([]model.Message, error)
	Partners(id model.UserID) ([]model.PublicUser, error)
}

// httpError maps the service error taxonomy onto response codes. Anything
// unrecognised bubbles up as a 500 via echo's default handler.
func httpError(err error) error {
	switch {
	case errors.Is(err, model.ErrorUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, model.ErrorNotConnected):
		return echo.NewHTTPError(http.StatusNotFound, "No connection found")
	case errors.Is(err, model.ErrorDuplicateUsername):
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	case errors.Is(err, model.ErrorRiddleArity),
		errors.Is(err, model.ErrorAnswerArity),
		errors.Is(err, model.ErrorEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrorInvalidUsernameOrPassword):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	default:
		return err
	}
}
