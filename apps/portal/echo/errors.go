package echoapi

import (
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	"github.com/trezcool/veritas/core/wizard"
	apisvc "github.com/trezcool/veritas/services/api"
)

const (
	msgUnavailable        = "El servidor no está disponible en este momento, intente más tarde"
	msgInvalidCredentials = "Credenciales inválidas"

	// set once a handler already told the user about its failure
	contextNotifiedKey = "notified"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "usuario no autenticado")
	errInvalidID    = echo.NewHTTPError(http.StatusBadRequest, "identificador inválido")
)

// isConflict reports whether err means the request does not fit the current state of the flow.
func isConflict(err error) bool {
	switch err {
	case core.ErrBusy, wizard.ErrFirstStep, wizard.ErrLastStep, wizard.ErrNotLastStep, wizard.ErrSubmitted:
		return true
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		// the backend ended the session: follow the store to the login screen
		if to, ok := navigatedTo(ctx); ok {
			if apiErr, isAPIErr := apisvc.AsError(err); isAPIErr && apiErr.Auth() {
				if rErr := ctx.Redirect(http.StatusSeeOther, to); rErr != nil {
					ctx.Echo().Logger.Error(rErr)
				}
				return
			}
		}

		var code int
		var message interface{}
		var notice string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *apisvc.Error:
			code = origErr.Status
			if origErr.Transient() {
				code = http.StatusBadGateway
			}
			notice = origErr.UserMessage()
			message = notice
		case *url.Error: // backend unreachable
			code = http.StatusBadGateway
			notice = msgUnavailable
			message = notice
		default:
			if isConflict(origErr) {
				code = http.StatusConflict
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var sess session.Session
			if br := contextBrowser(ctx); br != nil {
				sess, _ = br.store.Current()
			}
			logger.Error(msg, errors.Wrap(err, msg), sess)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if notice != "" {
			if br := contextBrowser(ctx); br != nil && ctx.Get(contextNotifiedKey) == nil {
				br.notes.Error(notice)
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
