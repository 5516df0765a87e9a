package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"uk.co.dudmesh.nevermore/internal/model"
)

type sendMessageRequest struct {
	Content         string `json:"content"`
	TargetUsername  string `json:"target_username"`
	CurrentUsername string `json:"current_username"`
}

func SendMessage(chat ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &sendMessageRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		message, err := chat.Send(params.CurrentUsername, params.TargetUsername, params.Content)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, message)
	}
}

// Messages serves the full ordered thread between the path user and the
// target. Clients poll this endpoint and replace their local view with the
// response wholesale.
func Messages(users UserService, chat ChatService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := users.Fetch(model.UserID(c.Param("userID")))
		if err != nil {
			return httpError(err)
		}
		history, err := chat.History(user.Username, c.Param("targetUsername"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, history)
	}
}
