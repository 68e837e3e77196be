package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerNotificationsAPI(g *echo.Group) {
	g.GET("/notificaciones", listNotifications)
	g.DELETE("/notificaciones/:id", dismissNotification)
}

// listNotifications returns the visible notifications, oldest first.
func listNotifications(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextBrowser(ctx).notes.List())
}

func dismissNotification(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	contextBrowser(ctx).notes.Dismiss(id)
	return ctx.NoContent(http.StatusNoContent)
}
