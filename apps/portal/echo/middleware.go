package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/veritas/core/access"
)

// guardMiddleware applies the access rules to every screen of the portal.
// A session still being restored after wait gets a loading placeholder.
func guardMiddleware(guard *access.Guard, wait time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			br := contextBrowser(ctx)
			if br == nil {
				return next(ctx)
			}

			if br.store.Loading() {
				wctx, cancel := context.WithTimeout(ctx.Request().Context(), wait)
				_ = br.store.Wait(wctx) // timing out leaves the store loading
				cancel()
			}

			dec := guard.Check(br.store, ctx.Request().URL.Path)
			switch dec.State {
			case access.StateLoading:
				ctx.Response().Header().Set("Retry-After", "1")
				return ctx.JSON(http.StatusAccepted, echo.Map{"estado": dec.State.String()})
			case access.StateUnauthenticated, access.StateForbidden:
				return ctx.Redirect(http.StatusFound, dec.Redirect)
			}
			return next(ctx)
		}
	}
}
