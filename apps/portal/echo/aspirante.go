package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/access"
	"github.com/trezcool/veritas/core/admission"
)

type aspiranteAPI struct {
	validate   *validator.Validate
	translator ut.Translator
}

func registerAspiranteAPI(g *echo.Group, validate *validator.Validate, translator ut.Translator) {
	api := aspiranteAPI{validate: validate, translator: translator}

	asp := g.Group(access.AspirantePath)
	asp.GET("", api.me)
	asp.GET("/estado", api.estado)
	asp.GET("/formulario", api.formulario)
	asp.DELETE("/formulario", api.restartFormulario)
	asp.POST("/formulario/siguiente", api.next)
	asp.POST("/formulario/anterior", api.previous)
	asp.POST("/formulario/enviar", api.submit)
}

func (api aspiranteAPI) me(ctx echo.Context) error {
	me, err := contextBrowser(ctx).api.Aspirantes().Me(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, me)
}

func (api aspiranteAPI) estado(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	svc := contextBrowser(ctx).api.Aspirantes()

	me, err := svc.Me(reqCtx)
	if err != nil {
		return err
	}
	estado, err := svc.Estado(reqCtx, me.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newEstadoView(estado.Estado, estado.FechaEntrevista))
}

func (api aspiranteAPI) wizard(ctx echo.Context) (*admission.Formulario, error) {
	sess, err := contextSession(ctx)
	if err != nil {
		return nil, err
	}
	br := contextBrowser(ctx)
	w, err := br.formularioWizard(sess.UserID, func() (*admission.Formulario, error) {
		svc := br.api.Aspirantes()
		me, err := svc.Me(ctx.Request().Context())
		if err != nil {
			return nil, err
		}
		return admission.NewFormulario(svc, me.ID, api.validate, api.translator, br.notes)
	})
	return w, errors.Wrap(err, "starting formulario")
}

func (api aspiranteAPI) formulario(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newWizardView(w))
}

func (api aspiranteAPI) restartFormulario(ctx echo.Context) error {
	contextBrowser(ctx).resetFormulario()
	return api.formulario(ctx)
}

func (api aspiranteAPI) next(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardNext(ctx, w)
}

func (api aspiranteAPI) previous(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardPrevious(ctx, w)
}

func (api aspiranteAPI) submit(ctx echo.Context) error {
	w, err := api.wizard(ctx)
	if err != nil {
		return err
	}
	return wizardSubmit(ctx, w, "Formulario enviado")
}
