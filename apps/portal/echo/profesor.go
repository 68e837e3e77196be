package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apisvc "github.com/trezcool/veritas/services/api"
)

type profesorAPI struct {
	validate *validator.Validate
}

func registerProfesorAPI(g *echo.Group, validate *validator.Validate) {
	api := profesorAPI{validate: validate}
	prof := g.Group("/profesor")

	prof.GET("/grupos", api.listGrupos)
	prof.GET("/grupos/:id", getGrupo)
	prof.GET("/grupos/:id/listado.pdf", listadoPDF)

	prof.GET("/citaciones", listCitacionesByTipo)
	prof.POST("/citaciones", createCitacion(validate))
	prof.PATCH("/citaciones/:id/estado", changeCitacionEstado(validate))

	prof.GET("/calificaciones", listCalificaciones)
	prof.POST("/calificaciones", api.createCalificacion)
	prof.PUT("/calificaciones/:id", api.updateCalificacion)
	prof.DELETE("/calificaciones/:id", api.deleteCalificacion)
	prof.GET("/calificaciones/logros", api.listLogros)

	prof.GET("/observador", listObservaciones)
	prof.POST("/observador", api.createObservacion)
}

// listGrupos shows the groups led by the teacher.
func (api profesorAPI) listGrupos(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Grupo, error) {
		return cl.Grupos().List(c, sess.UserID)
	})
}

func listCitacionesByTipo(ctx echo.Context) error {
	tipo := ctx.QueryParam("tipo")
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Citacion, error) {
		return cl.Citaciones().List(c, tipo)
	})
}

// Calificaciones

func listCalificaciones(ctx echo.Context) error {
	estudianteID, err := queryID(ctx, "estudianteId")
	if err != nil {
		return err
	}
	periodo, err := queryInt(ctx, "periodo")
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Calificacion, error) {
		return cl.Calificaciones().List(c, estudianteID, periodo)
	})
}

func (api profesorAPI) createCalificacion(ctx echo.Context) error {
	var data apisvc.CalificacionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CalificacionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return mutate(ctx, "calificaciones.create", "Calificación registrada", http.StatusCreated,
		func(c context.Context, cl *apisvc.Client) (apisvc.Calificacion, error) {
			return cl.Calificaciones().Create(c, data)
		})
}

func (api profesorAPI) updateCalificacion(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data apisvc.CalificacionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CalificacionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	return mutate(ctx, "calificaciones.update", "Calificación actualizada", http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Calificacion, error) {
			return cl.Calificaciones().Update(c, id, data)
		})
}

func (api profesorAPI) deleteCalificacion(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return mutate(ctx, "calificaciones.delete", "Calificación eliminada", http.StatusNoContent,
		func(c context.Context, cl *apisvc.Client) (deleted, error) {
			return deleted{}, cl.Calificaciones().Delete(c, id)
		})
}

func (api profesorAPI) listLogros(ctx echo.Context) error {
	categoria := ctx.QueryParam("categoria")
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Logro, error) {
		if categoria != "" {
			return cl.Logros().ByCategoria(c, categoria)
		}
		return cl.Logros().List(c)
	})
}

// Observador

func listObservaciones(ctx echo.Context) error {
	estudianteID, err := queryID(ctx, "estudianteId")
	if err != nil {
		return err
	}
	if estudianteID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "estudianteId es requerido")
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Observacion, error) {
		return cl.Observaciones().List(c, estudianteID)
	})
}

func (api profesorAPI) createObservacion(ctx echo.Context) error {
	var data apisvc.ObservacionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ObservacionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return mutate(ctx, "observaciones.create", "Observación registrada", http.StatusCreated,
		func(c context.Context, cl *apisvc.Client) (apisvc.Observacion, error) {
			return cl.Observaciones().Create(c, data)
		})
}
