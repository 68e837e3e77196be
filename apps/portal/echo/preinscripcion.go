package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/admission"
	apisvc "github.com/trezcool/veritas/services/api"
)

// public screens of the applicants: no session needed

type preinscripcionAPI struct {
	validate   *validator.Validate
	translator ut.Translator
}

func registerPreinscripcionAPI(g *echo.Group, validate *validator.Validate, translator ut.Translator) {
	api := preinscripcionAPI{validate: validate, translator: translator}

	pre := g.Group("/preinscripcion")
	pre.GET("", api.current)
	pre.DELETE("", api.restart)
	pre.POST("/siguiente", api.next)
	pre.POST("/anterior", api.previous)
	pre.POST("/enviar", api.submit)
	pre.GET("/estado/:id", api.estadoPublico)

	g.POST("/solicitar-clave", api.solicitarClave)
}

func (api preinscripcionAPI) wizard(ctx echo.Context) (*admission.Preinscripcion, error) {
	br := contextBrowser(ctx)
	w, err := br.preinscripcionWizard(func() (*admission.Preinscripcion, error) {
		return admission.NewPreinscripcion(br.api.Aspirantes(), api.validate, api.translator, br.notes)
	})
	return w, errors.Wrap(err, "starting preinscripcion")
}

func (api preinscripcionAPI) current(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newWizardView(w))
}

func (api preinscripcionAPI) restart(ctx echo.Context) error {
	contextBrowser(ctx).resetPreinscripcion()
	return api.current(ctx)
}

func (api preinscripcionAPI) next(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardNext(ctx, w)
}

func (api preinscripcionAPI) previous(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardPrevious(ctx, w)
}

// submit answers with the temporary key of the applicant; it is shown this once.
func (api preinscripcionAPI) submit(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardSubmit(ctx, w, "Preinscripción registrada, guarde su clave temporal")
}

type estadoView struct {
	Estado          string      `json:"estado"`
	EstadoLabel     string      `json:"estadoLabel"`
	Finalizado      bool        `json:"finalizado"`
	FechaEntrevista string      `json:"fechaEntrevista,omitempty"`
	Estudiante      interface{} `json:"estudiante,omitempty"`
}

func newEstadoView(estado, fechaEntrevista string) estadoView {
	view := estadoView{
		Estado:          estado,
		EstadoLabel:     admission.Label(estado),
		FechaEntrevista: fechaEntrevista,
	}
	if est, err := admission.ParseEstado(estado); err == nil {
		view.Finalizado = est.Final()
	}
	return view
}

func (api preinscripcionAPI) estadoPublico(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	br := contextBrowser(ctx)
	estado, err := br.api.Aspirantes().EstadoPublico(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	view := newEstadoView(estado.Estado, estado.FechaEntrevista)
	if estado.Estudiante != nil {
		view.Estudiante = estado.Estudiante
	}
	return ctx.JSON(http.StatusOK, view)
}

type solicitarClaveRequest struct {
	Correo string `json:"correo" validate:"required,email"`
}

func (api preinscripcionAPI) solicitarClave(ctx echo.Context) error {
	var data solicitarClaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to solicitarClaveRequest")
	}
	data.Correo = core.CleanString(data.Correo, true /* lower */)
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	br := contextBrowser(ctx)
	var clave apisvc.ClaveTemporal
	err := br.run("solicitar-clave", func() (err error) {
		clave, err = br.api.Aspirantes().SolicitarClave(ctx.Request().Context(), data.Correo)
		return err
	})
	if err != nil {
		return err
	}
	br.notes.Success("Clave temporal generada")
	return ctx.JSON(http.StatusOK, clave)
}
