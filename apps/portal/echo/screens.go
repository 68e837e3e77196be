package echoapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	apisvc "github.com/trezcool/veritas/services/api"
)

// query runs a read-only backend call and renders its result.
func query[T any](ctx echo.Context, fn func(context.Context, *apisvc.Client) (T, error)) error {
	out, err := fn(ctx.Request().Context(), contextBrowser(ctx).api)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

// mutate runs a backend call that changes data, at most once at a time per action and
// browser, and confirms it with a success notification.
func mutate[T any](ctx echo.Context, action, success string, code int, fn func(context.Context, *apisvc.Client) (T, error)) error {
	br := contextBrowser(ctx)

	var out T
	err := br.run(action, func() (err error) {
		out, err = fn(ctx.Request().Context(), br.api)
		return err
	})
	if err != nil {
		return err
	}
	br.notes.Success(success)

	if code == http.StatusNoContent {
		return ctx.NoContent(code)
	}
	return ctx.JSON(code, out)
}

type citacionEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=PENDIENTE REALIZADA CANCELADA"`
}

func bindCitacionEstado(ctx echo.Context, validate *validator.Validate) (string, error) {
	var data citacionEstadoRequest
	if err := ctx.Bind(&data); err != nil {
		return "", errors.Wrap(err, "binding to citacionEstadoRequest")
	}
	data.Estado = strings.ToUpper(core.CleanString(data.Estado))
	if err := validate.Struct(&data); err != nil {
		return "", err
	}
	return data.Estado, nil
}

type deleted struct{}
