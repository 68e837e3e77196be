package admission

import (
	"context"
	"encoding/json"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core/wizard"
	apisvc "github.com/trezcool/veritas/services/api"
)

// Step IDs
const (
	StepAcudiente  = "acudiente"
	StepMenor      = "menor"
	StepSalud      = "salud"
	StepEstudiante = "estudiante"
	StepMedico     = "medico"
)

type (
	Preinscripcion = wizard.Wizard[apisvc.Preinscripcion]
	Formulario     = wizard.Wizard[apisvc.EstadoPreinscripcion]

	// PreinscripcionAPI and FormularioAPI are satisfied by *apisvc.AspiranteService.
	PreinscripcionAPI interface {
		PreinscripcionPublica(ctx context.Context, req apisvc.PreinscripcionPublicaRequest) (apisvc.Preinscripcion, error)
	}

	FormularioAPI interface {
		SubmitFormulario(ctx context.Context, id int64, form apisvc.FormularioPreinscripcion) (apisvc.EstadoPreinscripcion, error)
	}
)

func PreinscripcionSteps(validate *validator.Validate, translator ut.Translator) []wizard.Step {
	return []wizard.Step{
		wizard.NewFormStep[AcudientePublicoForm](StepAcudiente, validate, translator),
		wizard.NewFormStep[MenorForm](StepMenor, validate, translator),
		wizard.NewFormStep[SaludForm](StepSalud, validate, translator),
	}
}

func FormularioSteps(validate *validator.Validate, translator ut.Translator) []wizard.Step {
	return []wizard.Step{
		wizard.NewFormStep[AcudienteForm](StepAcudiente, validate, translator),
		wizard.NewFormStep[EstudianteForm](StepEstudiante, validate, translator),
		wizard.NewFormStep[MedicoForm](StepMedico, validate, translator),
	}
}

// NewPreinscripcion starts the public pre-registration. Its result carries the temporary
// key, which the caller shows once.
func NewPreinscripcion(api PreinscripcionAPI, validate *validator.Validate, translator ut.Translator, notifier wizard.Notifier) (*Preinscripcion, error) {
	submit := func(ctx context.Context, data wizard.Data) (apisvc.Preinscripcion, error) {
		req, err := PreinscripcionRequest(data)
		if err != nil {
			return apisvc.Preinscripcion{}, err
		}
		return api.PreinscripcionPublica(ctx, req)
	}
	return wizard.New[apisvc.Preinscripcion](PreinscripcionSteps(validate, translator), submit, notifier)
}

// NewFormulario starts the admission form of applicant aspiranteID.
func NewFormulario(api FormularioAPI, aspiranteID int64, validate *validator.Validate, translator ut.Translator, notifier wizard.Notifier) (*Formulario, error) {
	if aspiranteID <= 0 {
		return nil, errors.Errorf("aspirante inválido %d", aspiranteID)
	}
	submit := func(ctx context.Context, data wizard.Data) (apisvc.EstadoPreinscripcion, error) {
		form, err := FormularioPayload(data)
		if err != nil {
			return apisvc.EstadoPreinscripcion{}, err
		}
		return api.SubmitFormulario(ctx, aspiranteID, form)
	}
	return wizard.New[apisvc.EstadoPreinscripcion](FormularioSteps(validate, translator), submit, notifier)
}

// PreinscripcionRequest flattens the three sections into the public request body.
func PreinscripcionRequest(data wizard.Data) (apisvc.PreinscripcionPublicaRequest, error) {
	var req apisvc.PreinscripcionPublicaRequest

	flat := make(wizard.Fields)
	for _, id := range []string{StepAcudiente, StepMenor, StepSalud} {
		flds, ok := data[id]
		if !ok {
			return req, errors.Errorf("falta la sección %q", id)
		}
		for k, v := range flds {
			flat[k] = v
		}
	}
	if err := remarshal(flat, &req); err != nil {
		return req, errors.Wrap(err, "building preinscripcion")
	}
	return req, nil
}

// FormularioPayload nests the three sections as {acudiente, estudiante, medico}.
func FormularioPayload(data wizard.Data) (apisvc.FormularioPreinscripcion, error) {
	var form apisvc.FormularioPreinscripcion

	sections := map[string]interface{}{
		StepAcudiente:  &form.Acudiente,
		StepEstudiante: &form.Estudiante,
		StepMedico:     &form.Medico,
	}
	for id, dst := range sections {
		flds, ok := data[id]
		if !ok {
			return form, errors.Errorf("falta la sección %q", id)
		}
		if err := remarshal(flds, dst); err != nil {
			return form, errors.Wrapf(err, "building %s", id)
		}
	}
	return form, nil
}

func remarshal(src, dst interface{}) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
