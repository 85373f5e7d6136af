package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/admissions/core/chat"
)

type chatApi struct {
	svc chat.Service
}

func registerChatAPI(g *echo.Group, svc chat.Service) {
	api := chatApi{svc: svc}

	cg := g.Group("/chat")
	cg.POST("", api.ask)
	cg.GET("/:session", api.history)
	cg.DELETE("/:session", api.reset)
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (api *chatApi) ask(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}

	reply, err := api.svc.Ask(ctx.Request().Context(), data.SessionID, data.Message)
	if err != nil {
		return errors.Wrap(err, "asking assistant")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func (api *chatApi) history(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.History(ctx.Param("session")))
}

func (api *chatApi) reset(ctx echo.Context) error {
	api.svc.Reset(ctx.Param("session"))
	return ctx.NoContent(http.StatusNoContent)
}
