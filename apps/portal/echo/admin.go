package echoapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/admission"
	apisvc "github.com/trezcool/veritas/services/api"
)

type adminAPI struct {
	validate *validator.Validate
}

func registerAdminAPI(g *echo.Group, validate *validator.Validate) {
	api := adminAPI{validate: validate}
	adm := g.Group("/admin")

	adm.GET("/usuarios", api.listUsuarios)
	adm.POST("/usuarios", api.createUsuario)
	adm.PUT("/usuarios/:id", api.updateUsuario)
	adm.PATCH("/usuarios/:id/estado", api.setUsuarioEstado)
	adm.DELETE("/usuarios/:id", api.deleteUsuario)

	adm.GET("/aspirantes", api.listAspirantes)
	adm.GET("/aspirantes/estados", listEstados)
	adm.PATCH("/aspirantes/:id/estado", api.changeAspiranteEstado)
	adm.PUT("/aspirantes/:id/entrevista", api.scheduleInterview)

	adm.GET("/grupos", api.listGrupos)
	adm.POST("/grupos", api.createGrupo)
	adm.GET("/grupos/:id", getGrupo)
	adm.DELETE("/grupos/:id", api.deleteGrupo)
	adm.PATCH("/grupos/:id/confirmar", api.confirmGrupo)
	adm.POST("/grupos/:id/estudiantes", api.addEstudiante)
	adm.GET("/grupos/:id/listado.pdf", listadoPDF)

	adm.GET("/estudiantes", api.listEstudiantes)
	adm.GET("/estudiantes/:id", api.getEstudiante)
	adm.DELETE("/estudiantes/:id/grupo", api.removeFromGrupo)

	adm.GET("/citaciones", api.listCitaciones)
	adm.POST("/citaciones", createCitacion(validate))
	adm.PATCH("/citaciones/:id/estado", changeCitacionEstado(validate))
}

// Usuarios

func (api adminAPI) listUsuarios(ctx echo.Context) error {
	var page Pagination
	page.Bind(ctx)
	return query(ctx, func(c context.Context, cl *apisvc.Client) (apisvc.Page[apisvc.Usuario], error) {
		return cl.Usuarios().Page(c, page.Page, page.Size)
	})
}

func (api adminAPI) createUsuario(ctx echo.Context) error {
	var data apisvc.UsuarioRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UsuarioRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	// the answer carries the one-time credentials of the account
	return mutate(ctx, "usuarios.create", "Usuario creado", http.StatusCreated,
		func(c context.Context, cl *apisvc.Client) (apisvc.UsuarioCreado, error) {
			return cl.Usuarios().Create(c, data)
		})
}

func (api adminAPI) updateUsuario(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data apisvc.UsuarioUpdateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UsuarioUpdateRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	return mutate(ctx, "usuarios.update", "Usuario actualizado", http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Usuario, error) {
			return cl.Usuarios().Update(c, id, data)
		})
}

type usuarioEstadoRequest struct {
	Activo *bool `json:"activo" validate:"required"`
}

func (api adminAPI) setUsuarioEstado(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data usuarioEstadoRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to usuarioEstadoRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}
	msg := "Usuario desactivado"
	if *data.Activo {
		msg = "Usuario activado"
	}
	return mutate(ctx, "usuarios.estado", msg, http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Usuario, error) {
			return cl.Usuarios().SetEstado(c, id, *data.Activo)
		})
}

func (api adminAPI) deleteUsuario(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return mutate(ctx, "usuarios.delete", "Usuario eliminado", http.StatusNoContent,
		func(c context.Context, cl *apisvc.Client) (deleted, error) {
			return deleted{}, cl.Usuarios().Delete(c, id)
		})
}

// Aspirantes

type aspiranteView struct {
	apisvc.Aspirante
	EstadoLabel string `json:"estadoLabel"`
}

func (api adminAPI) listAspirantes(ctx echo.Context) error {
	var page Pagination
	page.Bind(ctx)

	var estado string
	if raw := ctx.QueryParam("estado"); raw != "" {
		est, err := admission.ParseEstado(raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "estado", Error: err.Error()})
		}
		estado = string(est)
	}

	return query(ctx, func(c context.Context, cl *apisvc.Client) (apisvc.Page[aspiranteView], error) {
		res, err := cl.Aspirantes().Page(c, page.Page, page.Size, estado)
		if err != nil {
			return apisvc.Page[aspiranteView]{}, err
		}
		out := apisvc.Page[aspiranteView]{
			Content:       make([]aspiranteView, len(res.Content)),
			TotalElements: res.TotalElements,
			TotalPages:    res.TotalPages,
			Number:        res.Number,
			Size:          res.Size,
		}
		for i, asp := range res.Content {
			out.Content[i] = aspiranteView{Aspirante: asp, EstadoLabel: admission.Label(asp.EstadoInscripcion)}
		}
		return out, nil
	})
}

type estadoOption struct {
	Estado string `json:"estado"`
	Label  string `json:"label"`
	Final  bool   `json:"final"`
}

// listEstados feeds the status filter and the status change screen.
func listEstados(ctx echo.Context) error {
	out := make([]estadoOption, len(admission.Estados))
	for i, est := range admission.Estados {
		out[i] = estadoOption{Estado: string(est), Label: est.Label(), Final: est.Final()}
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api adminAPI) changeAspiranteEstado(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data struct {
		Estado string `json:"estado"`
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding aspirante estado")
	}
	estado, err := admission.ParseEstado(data.Estado)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "estado", Error: err.Error()})
	}
	return mutate(ctx, "aspirantes.estado", "Estado actualizado: "+estado.Label(), http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Aspirante, error) {
			return cl.Aspirantes().ChangeEstado(c, id, string(estado))
		})
}

type entrevistaRequest struct {
	Fecha string `json:"fecha" validate:"required,isodate"`
}

func (api adminAPI) scheduleInterview(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data entrevistaRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to entrevistaRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}
	return mutate(ctx, "aspirantes.entrevista", "Entrevista programada", http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Aspirante, error) {
			return cl.Aspirantes().ScheduleInterview(c, id, data.Fecha)
		})
}

// Grupos

func (api adminAPI) listGrupos(ctx echo.Context) error {
	profesorID, err := queryID(ctx, "profesorId")
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Grupo, error) {
		return cl.Grupos().List(c, profesorID)
	})
}

func (api adminAPI) createGrupo(ctx echo.Context) error {
	var data apisvc.GrupoRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GrupoRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return mutate(ctx, "grupos.create", "Grupo creado", http.StatusCreated,
		func(c context.Context, cl *apisvc.Client) (apisvc.Grupo, error) {
			return cl.Grupos().Create(c, data)
		})
}

func getGrupo(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) (apisvc.Grupo, error) {
		return cl.Grupos().Get(c, id)
	})
}

func (api adminAPI) deleteGrupo(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return mutate(ctx, "grupos.delete", "Grupo eliminado", http.StatusNoContent,
		func(c context.Context, cl *apisvc.Client) (deleted, error) {
			return deleted{}, cl.Grupos().Delete(c, id)
		})
}

func (api adminAPI) confirmGrupo(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return mutate(ctx, "grupos.confirm", "Grupo confirmado", http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Grupo, error) {
			return cl.Grupos().Confirm(c, id)
		})
}

type addEstudianteRequest struct {
	EstudianteID int64 `json:"estudianteId" validate:"required,gt=0"`
}

func (api adminAPI) addEstudiante(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data addEstudianteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to addEstudianteRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}
	return mutate(ctx, "grupos.estudiantes", "Estudiante agregado al grupo", http.StatusOK,
		func(c context.Context, cl *apisvc.Client) (apisvc.Grupo, error) {
			return cl.Grupos().AddEstudiante(c, id, data.EstudianteID)
		})
}

func listadoPDF(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	doc, err := contextBrowser(ctx).api.Grupos().ListadoPDF(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if doc.Filename == "" || doc.Filename == "listado.pdf" {
		doc.Filename = "listado-grupo-" + strconv.FormatInt(id, 10) + ".pdf"
	}
	return sendDocument(ctx, doc)
}

// Estudiantes

func (api adminAPI) listEstudiantes(ctx echo.Context) error {
	acudienteID, err := queryID(ctx, "acudienteId")
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) ([]apisvc.Estudiante, error) {
		return cl.Estudiantes().List(c, acudienteID)
	})
}

func (api adminAPI) getEstudiante(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return query(ctx, func(c context.Context, cl *apisvc.Client) (apisvc.Estudiante, error) {
		return cl.Estudiantes().Get(c, id)
	})
}

func (api adminAPI) removeFromGrupo(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	return mutate(ctx, "estudiantes.grupo", "Estudiante retirado del grupo", http.StatusNoContent,
		func(c context.Context, cl *apisvc.Client) (deleted, error) {
			return deleted{}, cl.Estudiantes().RemoveFromGrupo(c, id)
		})
}

// Citaciones

func (api adminAPI) listCitaciones(ctx echo.Context) error {
	var page Pagination
	page.Bind(ctx)
	tipo, estado := ctx.QueryParam("tipo"), ctx.QueryParam("estado")
	return query(ctx, func(c context.Context, cl *apisvc.Client) (apisvc.Page[apisvc.Citacion], error) {
		return cl.Citaciones().Page(c, page.Page, page.Size, tipo, estado)
	})
}

func createCitacion(validate *validator.Validate) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data apisvc.CitacionRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to CitacionRequest")
		}
		if err := data.Validate(validate); err != nil {
			return err
		}
		return mutate(ctx, "citaciones.create", "Citación creada", http.StatusCreated,
			func(c context.Context, cl *apisvc.Client) (apisvc.Citacion, error) {
				return cl.Citaciones().Create(c, data)
			})
	}
}

func changeCitacionEstado(validate *validator.Validate) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return err
		}
		estado, err := bindCitacionEstado(ctx, validate)
		if err != nil {
			return err
		}
		return mutate(ctx, "citaciones.estado", "Citación actualizada", http.StatusOK,
			func(c context.Context, cl *apisvc.Client) (apisvc.Citacion, error) {
				return cl.Citaciones().ChangeEstado(c, id, estado)
			})
	}
}
