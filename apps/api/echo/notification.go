package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core/notification"
	"github.com/trezcool/learntrack/core/user"
)

type notificationApi struct {
	svc    notification.Service
	usrSvc user.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc notification.Service, usrSvc user.Service) {
	api := notificationApi{svc: svc, usrSvc: usrSvc}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.GET("/unread", api.queryUnread)
	ng.POST("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	notifs, err := api.svc.Recent(ctx.Request().Context(), actor, limit)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) queryUnread(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	notifs, err := api.svc.Unread(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying unread notifications")
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.MarkRead(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
