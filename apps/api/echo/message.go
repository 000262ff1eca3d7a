package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core/messaging"
	"github.com/trezcool/learntrack/core/user"
)

type messagingApi struct {
	svc    messaging.Service
	usrSvc user.Service
}

func registerMessagingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc messaging.Service, usrSvc user.Service) {
	api := messagingApi{svc: svc, usrSvc: usrSvc}

	mg := g.Group("/messages", jwt)
	mg.GET("/contacts", api.queryContacts)
	mg.POST("", api.send)
	mg.GET("/:id", api.conversation)
	mg.POST("/:id/read", api.markConversationRead)
}

// Handlers

func (api *messagingApi) send(ctx echo.Context) error {
	var data messaging.SendInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendInput")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Send(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// conversation returns the two-way exchange with the user in the path.
func (api *messagingApi) conversation(ctx echo.Context) error {
	otherID, err := pathID(ctx)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	msgs, err := api.svc.Conversation(ctx.Request().Context(), actor, otherID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messagingApi) queryContacts(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	contacts, err := api.svc.Contacts(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *messagingApi) markConversationRead(ctx echo.Context) error {
	senderID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.MarkConversationRead(ctx.Request().Context(), actor, senderID); err != nil {
		return errors.Wrap(err, "marking conversation read")
	}
	return ctx.NoContent(http.StatusNoContent)
}
