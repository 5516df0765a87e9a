package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"uk.co.dudmesh.nevermore/internal/model"
)

const usernameContextKey = "username"

func Register(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.RegisterUserParams{}
		if err := c.Bind(params); err != nil {
			return err
		}
		user, err := users.Register(c.Request().Context(), params)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": user.ID,
			"poem":    user.Poem,
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &loginRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		user, token, err := users.Authenticate(params.Username, params.Password)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"token":   token,
			"user_id": user.ID,
		})
	}
}

func ListUsers(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := users.List()
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, list)
	}
}

// RequireUser validates the bearer token and stashes the authenticated
// username on the context.
func RequireUser(users UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "Bearer token required")
			}
			username, err := users.VerifyToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			c.Set(usernameContextKey, username)
			return next(c)
		}
	}
}

// Connections lists the chat partners of the authenticated user. The path
// user must match the token subject.
func Connections(users UserService, chat ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := users.Fetch(model.UserID(c.Param("userID")))
		if err != nil {
			return httpError(err)
		}
		if username, _ := c.Get(usernameContextKey).(string); username != user.Username {
			return echo.NewHTTPError(http.StatusForbidden, "Token does not match user")
		}
		partners, err := chat.Partners(user.ID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, partners)
	}
}
