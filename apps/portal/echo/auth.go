package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/access"
	"github.com/trezcool/veritas/core/notify"
	"github.com/trezcool/veritas/core/session"
	apisvc "github.com/trezcool/veritas/services/api"
)

type authAPI struct {
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, validate *validator.Validate, translator ut.Translator) {
	api := authAPI{validate: validate, translator: translator}

	g.POST(access.LoginPath, api.login)
	g.POST(access.FirstLoginPath, api.firstLogin)
	g.POST("/reset-password", api.resetPassword)
	g.POST("/logout", api.logout)
	g.GET("/session", api.session)
	g.GET(access.DashboardPath, api.dashboard)
}

type sessionView struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Correo      string `json:"correo"`
	Rol         string `json:"rol"`
	RolLabel    string `json:"rolLabel"`
	CambiarPass bool   `json:"cambiarPass"`
	Inicio      string `json:"inicio"`
}

func newSessionView(sess session.Session) sessionView {
	return sessionView{
		ID:          sess.UserID,
		Nombre:      sess.DisplayName,
		Correo:      sess.Email,
		Rol:         string(sess.Role),
		RolLabel:    sess.Role.Label(),
		CambiarPass: sess.MustChangePassword,
		Inicio:      access.Home(sess),
	}
}

type dashboardView struct {
	Sesion         sessionView           `json:"sesion"`
	Menu           []access.MenuItem     `json:"menu"`
	Notificaciones []notify.Notification `json:"notificaciones"`
}

// login answers with a redirect to the home screen of the user,
// or /first-login while the temporary password is still in use.
func (api authAPI) login(ctx echo.Context) error {
	var data session.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	br := contextBrowser(ctx)
	err := br.run("login", func() error {
		_, err := br.store.Login(ctx.Request().Context(), data.Correo, data.Password)
		return err
	})
	if err != nil {
		// bad credentials: shown inline, the current session stays
		if apiErr, ok := apisvc.AsError(err); ok && apiErr.Auth() {
			return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials).SetInternal(err)
		}
		return err
	}
	return redirectHome(ctx, br, "Bienvenido, ")
}

func (api authAPI) firstLogin(ctx echo.Context) error {
	var data session.FirstLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FirstLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	br := contextBrowser(ctx)
	err := br.run("first-login", func() error {
		_, err := br.store.FirstLogin(ctx.Request().Context(), data)
		return err
	})
	if err != nil {
		return err
	}
	return redirectHome(ctx, br, "Contraseña actualizada, bienvenido ")
}

func (api authAPI) resetPassword(ctx echo.Context) error {
	var data session.ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	br := contextBrowser(ctx)
	err := br.run("reset-password", func() error {
		_, err := br.store.ResetPassword(ctx.Request().Context(), data.Correo, data.NuevaPassword)
		return err
	})
	if err != nil {
		return err
	}
	return redirectHome(ctx, br, "Contraseña actualizada, bienvenido ")
}

func redirectHome(ctx echo.Context, br *browser, greeting string) error {
	sess, ok := br.store.Current()
	if !ok {
		return errUnauthorized
	}
	br.notes.Success(greeting + sess.DisplayName)
	return ctx.Redirect(http.StatusSeeOther, access.Home(sess))
}

func (api authAPI) logout(ctx echo.Context) error {
	br := contextBrowser(ctx)
	if err := br.store.Logout(ctx.Request().Context()); err != nil {
		return err
	}
	br.resetFormulario()
	return ctx.Redirect(http.StatusSeeOther, access.LoginPath)
}

func (api authAPI) session(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionView(sess))
}

func (api authAPI) dashboard(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dashboardView{
		Sesion:         newSessionView(sess),
		Menu:           access.MenuFor(sess.Role),
		Notificaciones: contextBrowser(ctx).notes.List(),
	})
}
