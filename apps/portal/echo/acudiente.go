package echoapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apisvc "github.com/trezcool/veritas/services/api"
)

var errNotYourChild = echo.NewHTTPError(http.StatusForbidden, "el estudiante no está a su cargo")

func registerAcudienteAPI(g *echo.Group) {
	acu := g.Group("/acudiente")

	acu.GET("/estudiantes", listChildren)
	acu.GET("/citaciones", listCitacionesByTipo)
	acu.GET("/calificaciones", childScoped(listCalificaciones))
	acu.GET("/boletines", listChildren)
	acu.GET("/boletines/:id/boletin.pdf", boletinPDF)
	acu.GET("/observador", childScoped(listObservaciones))
}

func children(ctx echo.Context) ([]apisvc.Estudiante, error) {
	sess, err := contextSession(ctx)
	if err != nil {
		return nil, err
	}
	return contextBrowser(ctx).api.Estudiantes().List(ctx.Request().Context(), sess.UserID)
}

func listChildren(ctx echo.Context) error {
	return query(ctx, func(context.Context, *apisvc.Client) ([]apisvc.Estudiante, error) {
		return children(ctx)
	})
}

// ensureChild fails unless estudianteID is one of the guardian's children.
func ensureChild(ctx echo.Context, estudianteID int64) error {
	kids, err := children(ctx)
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if kid.ID == estudianteID {
			return nil
		}
	}
	return errNotYourChild
}

// childScoped restricts a screen filtered by ?estudianteId to the guardian's children.
func childScoped(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		estudianteID, err := queryID(ctx, "estudianteId")
		if err != nil {
			return err
		}
		if estudianteID == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "estudianteId es requerido")
		}
		if err = ensureChild(ctx, estudianteID); err != nil {
			return err
		}
		return next(ctx)
	}
}

func boletinPDF(ctx echo.Context) error {
	estudianteID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	periodo, err := queryInt(ctx, "periodo")
	if err != nil {
		return err
	}
	if err = ensureChild(ctx, estudianteID); err != nil {
		return err
	}

	doc, err := contextBrowser(ctx).api.Calificaciones().BoletinPDF(ctx.Request().Context(), estudianteID, periodo)
	if err != nil {
		return err
	}
	if doc.Filename == "" || doc.Filename == "boletin.pdf" {
		doc.Filename = "boletin-" + strconv.FormatInt(estudianteID, 10)
		if periodo > 0 {
			doc.Filename += "-p" + strconv.Itoa(periodo)
		}
		doc.Filename += ".pdf"
	}
	return sendDocument(ctx, doc)
}
