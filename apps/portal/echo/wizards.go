package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/admission"
	"github.com/trezcool/veritas/core/wizard"
	apisvc "github.com/trezcool/veritas/services/api"
)

type wizardView struct {
	Paso      string        `json:"paso"`
	Indice    int           `json:"indice"`
	Total     int           `json:"total"`
	Ultimo    bool          `json:"ultimo"`
	Campos    []string      `json:"campos"`
	Valores   wizard.Fields `json:"valores"`
	Enviando  bool          `json:"enviando"`
	Enviado   bool          `json:"enviado"`
	Resultado interface{}   `json:"resultado,omitempty"`
}

func newWizardView[R any](w *wizard.Wizard[R]) wizardView {
	step := w.Current()
	return wizardView{
		Paso:     step.ID(),
		Indice:   w.Index(),
		Total:    w.Len(),
		Ultimo:   w.IsLast(),
		Campos:   step.Fields(),
		Valores:  w.Input(),
		Enviando: w.Submitting(),
		Enviado:  w.Submitted(),
	}
}

func wizardNext[R any](ctx echo.Context, w *wizard.Wizard[R]) error {
	in, err := bindFields(ctx)
	if err != nil {
		return err
	}
	if err = w.Next(in); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newWizardView(w))
}

func wizardPrevious[R any](ctx echo.Context, w *wizard.Wizard[R]) error {
	if err := w.Previous(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newWizardView(w))
}

func wizardSubmit[R any](ctx echo.Context, w *wizard.Wizard[R], success string) error {
	in, err := bindFields(ctx)
	if err != nil {
		return err
	}
	res, err := w.Submit(ctx.Request().Context(), in)
	if err != nil {
		// failures of the backend call were already notified by the wizard
		switch errors.Cause(err).(type) {
		case *apisvc.Error, *url.Error:
			ctx.Set(contextNotifiedKey, true)
		}
		return err
	}
	contextBrowser(ctx).notes.Success(success)

	// the result (e.g. the temporary key) is shown in this answer only
	view := newWizardView(w)
	view.Resultado = res
	return ctx.JSON(http.StatusCreated, view)
}

// Browser held wizards

func (br *browser) preinscripcionWizard(create func() (*admission.Preinscripcion, error)) (*admission.Preinscripcion, error) {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.preinscripcion == nil {
		w, err := create()
		if err != nil {
			return nil, err
		}
		br.preinscripcion = w
	}
	return br.preinscripcion, nil
}

func (br *browser) resetPreinscripcion() {
	br.mu.Lock()
	br.preinscripcion = nil
	br.mu.Unlock()
}

// formularioWizard returns the admission form of userID, starting a new one when the
// browser changed hands. create runs unlocked since it calls the backend; when two requests
// race, the first form stored wins.
func (br *browser) formularioWizard(userID int64, create func() (*admission.Formulario, error)) (*admission.Formulario, error) {
	if w := br.currentFormulario(userID); w != nil {
		return w, nil
	}

	w, err := create()
	if err != nil {
		return nil, err
	}

	br.mu.Lock()
	defer br.mu.Unlock()
	if br.formulario != nil && br.formularioOf == userID {
		return br.formulario, nil
	}
	br.formulario, br.formularioOf = w, userID
	return w, nil
}

func (br *browser) currentFormulario(userID int64) *admission.Formulario {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.formularioOf != userID {
		return nil
	}
	return br.formulario
}

func (br *browser) resetFormulario() {
	br.mu.Lock()
	br.formulario, br.formularioOf = nil, 0
	br.mu.Unlock()
}
