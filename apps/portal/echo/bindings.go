package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/wizard"
	apisvc "github.com/trezcool/veritas/services/api"
)

const (
	pageParam   = "page"
	sizeParam   = "size"
	defaultSize = 20
	maxSize     = 100
)

type Pagination struct {
	Page int
	Size int
}

func (p *Pagination) Bind(ctx echo.Context) {
	p.Page, p.Size = 0, defaultSize
	if page, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil && page >= 0 {
		p.Page = page
	}
	if size, err := strconv.Atoi(ctx.QueryParam(sizeParam)); err == nil && size > 0 {
		p.Size = size
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
}

func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryID reads an optional positive id from the query string; 0 when absent.
func queryID(ctx echo.Context, name string) (int64, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func queryInt(ctx echo.Context, name string) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" inválido")
	}
	return n, nil
}

// bindFields decodes the flat JSON object of a wizard step. An empty body is an empty step.
func bindFields(ctx echo.Context) (wizard.Fields, error) {
	in := wizard.Fields{}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&in); err != nil && err != io.EOF {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "los campos deben ser texto").SetInternal(err)
	}
	return in, nil
}

func sendDocument(ctx echo.Context, doc apisvc.Document) error {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return errors.Wrap(ctx.Blob(http.StatusOK, contentType, doc.Data), "sending document")
}
