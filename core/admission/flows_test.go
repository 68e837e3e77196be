package admission

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/notify"
	"github.com/trezcool/veritas/core/wizard"
	apisvc "github.com/trezcool/veritas/services/api"
)

type capture struct {
	mu     sync.Mutex
	bodies map[string][]string
	status int
	resp   string
}

func (c *capture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	if c.bodies == nil {
		c.bodies = make(map[string][]string)
	}
	c.bodies[r.Method+" "+r.URL.Path] = append(c.bodies[r.Method+" "+r.URL.Path], string(body))
	status, resp := c.status, c.resp
	c.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

func newAspirantes(t *testing.T, c *capture) *apisvc.AspiranteService {
	t.Helper()
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)
	client, err := apisvc.NewClient(apisvc.Options{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	return client.Aspirantes()
}

func TestFormulario_singleMergedSubmission(t *testing.T) {
	backend := &capture{resp: `{"estado":"SIN_REVISAR"}`}
	validate, translator := core.NewValidator()
	channel := notify.NewChannel()
	defer channel.Close()

	f, err := NewFormulario(newAspirantes(t, backend), 7, validate, translator, channel)
	require.NoError(t, err)

	require.NoError(t, f.Next(wizard.Fields{
		"nombre": "Marta", "apellido": "Gómez", "telefono": "3104567890", "correo": " marta@mail.com ",
	}))
	require.NoError(t, f.Next(wizard.Fields{
		"nombre": "Tomás", "apellido": "Gómez", "gradoAspirado": "Caminadores",
		"fechaNacimiento": "2020-03-10", "registroCivil": "1023456789",
	}))
	res, err := f.Submit(context.Background(), wizard.Fields{"alergias": "Maní"})
	require.NoError(t, err)
	assert.Equal(t, "SIN_REVISAR", res.Estado)

	bodies := backend.bodies["POST /api/aspirantes/7/formulario"]
	require.Len(t, bodies, 1)
	assert.Len(t, backend.bodies, 1, "no other calls")

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &got))
	assert.Equal(t, map[string]map[string]string{
		"acudiente": {"nombre": "Marta", "apellido": "Gómez", "telefono": "3104567890", "correo": "marta@mail.com"},
		"estudiante": {
			"nombre": "Tomás", "apellido": "Gómez", "gradoAspirado": "Caminadores",
			"fechaNacimiento": "2020-03-10", "registroCivil": "1023456789",
		},
		"medico": {"alergias": "Maní", "condicionesMedicas": "Ninguna", "medicamentos": "Ninguno"},
	}, got)
	assert.Zero(t, channel.Len())
}

func TestPreinscripcion(t *testing.T) {
	backend := &capture{resp: `{"claveTemporal":"K9-XY21","aspiranteId":12,"estudianteId":30}`}
	validate, translator := core.NewValidator()

	p, err := NewPreinscripcion(newAspirantes(t, backend), validate, translator, nil)
	require.NoError(t, err)

	steps := []wizard.Fields{
		{"correo": "pedro@mail.com", "nombreAcudiente": "Pedro", "apellidoAcudiente": "Ruiz", "telefono": "6014567890"},
		{"nombreMenor": "Sara", "apellidoMenor": "Ruiz", "grado": "Pre-jardín", "fechaNacimiento": "2021-01-20"},
	}
	for _, in := range steps {
		require.NoError(t, p.Next(in))
	}
	res, err := p.Submit(context.Background(), wizard.Fields{})
	require.NoError(t, err)
	assert.Equal(t, apisvc.Preinscripcion{ClaveTemporal: "K9-XY21", AspiranteID: 12, EstudianteID: 30}, res)

	bodies := backend.bodies["POST /api/aspirantes/preinscripcion-publica"]
	require.Len(t, bodies, 1)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &got))
	assert.Equal(t, map[string]string{
		"correo": "pedro@mail.com", "nombreAcudiente": "Pedro", "apellidoAcudiente": "Ruiz", "telefono": "6014567890",
		"nombreMenor": "Sara", "apellidoMenor": "Ruiz", "grado": "Pre-jardín", "fechaNacimiento": "2021-01-20",
		"alergias": "",
	}, got)
}

func TestPreinscripcion_stepValidation(t *testing.T) {
	validate, translator := core.NewValidator()
	p, err := NewPreinscripcion(nil, validate, translator, nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        wizard.Fields
		wantField string
	}{
		{name: "phone too short", in: wizard.Fields{"correo": "a@b.co", "nombreAcudiente": "Pedro", "apellidoAcudiente": "Ruiz", "telefono": "601456"}, wantField: "telefono"},
		{name: "bad email", in: wizard.Fields{"correo": "pedro", "nombreAcudiente": "Pedro", "apellidoAcudiente": "Ruiz", "telefono": "6014567890"}, wantField: "correo"},
		{name: "short name", in: wizard.Fields{"correo": "a@b.co", "nombreAcudiente": "Al", "apellidoAcudiente": "Ruiz", "telefono": "6014567890"}, wantField: "nombreAcudiente"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Next(tt.in)
			vErr, ok := core.AsValidationError(err)
			require.True(t, ok, "error = %v", err)
			assert.Contains(t, vErr.FieldMap(), tt.wantField)
			assert.Equal(t, 0, p.Index())
		})
	}

	require.NoError(t, p.Next(wizard.Fields{"correo": "a@b.co", "nombreAcudiente": "Pedro", "apellidoAcudiente": "Ruiz", "telefono": "6014567890"}))
	menor := []struct {
		name      string
		in        wizard.Fields
		wantField string
	}{
		{name: "unknown grade", in: wizard.Fields{"nombreMenor": "Sara", "apellidoMenor": "Ruiz", "grado": "Quinto", "fechaNacimiento": "2021-01-20"}, wantField: "grado"},
		{name: "too young", in: wizard.Fields{"nombreMenor": "Sara", "apellidoMenor": "Ruiz", "grado": "Párvulos", "fechaNacimiento": "2099-01-20"}, wantField: "fechaNacimiento"},
		{name: "bad date", in: wizard.Fields{"nombreMenor": "Sara", "apellidoMenor": "Ruiz", "grado": "Párvulos", "fechaNacimiento": "20/01/2021"}, wantField: "fechaNacimiento"},
	}
	for _, tt := range menor {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Next(tt.in)
			vErr, ok := core.AsValidationError(err)
			require.True(t, ok, "error = %v", err)
			assert.Contains(t, vErr.FieldMap(), tt.wantField)
			assert.Equal(t, 1, p.Index())
		})
	}
}

func TestFormulario_submitFailure(t *testing.T) {
	backend := &capture{status: http.StatusConflict, resp: `{"message":"El formulario ya fue diligenciado"}`}
	validate, translator := core.NewValidator()
	channel := notify.NewChannel()
	defer channel.Close()

	f, err := NewFormulario(newAspirantes(t, backend), 7, validate, translator, channel)
	require.NoError(t, err)
	require.NoError(t, f.Next(wizard.Fields{"nombre": "Marta", "apellido": "Gómez", "telefono": "3104567890", "correo": "marta@mail.com"}))
	require.NoError(t, f.Next(wizard.Fields{
		"nombre": "Tomás", "apellido": "Gómez", "gradoAspirado": "Párvulos",
		"fechaNacimiento": "2020-03-10", "registroCivil": "1023456789",
	}))

	_, err = f.Submit(context.Background(), wizard.Fields{})
	apiErr, ok := apisvc.AsError(err)
	require.True(t, ok, "error = %v", err)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	list := channel.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.KindError, list[0].Kind)
	assert.Equal(t, "El formulario ya fue diligenciado", list[0].Message)
	assert.Equal(t, 2, f.Index())
	assert.Len(t, f.Data(), 3)
}

func TestNewFormulario_invalidID(t *testing.T) {
	validate, translator := core.NewValidator()
	_, err := NewFormulario(nil, 0, validate, translator, nil)
	assert.Error(t, err)
}

func TestFormulario_registroCivil(t *testing.T) {
	validate, translator := core.NewValidator()
	acudiente := wizard.Fields{"nombre": "Marta", "apellido": "Gómez", "telefono": "3104567890", "correo": "marta@mail.com"}

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "digits", value: "1023456789"},
		{name: "dots and dashes", value: "RC-1.023.456"},
		{name: "too short", value: "1234", wantErr: true},
		{name: "too long", value: "123456789012345678901", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormulario(nil, 7, validate, translator, nil)
			require.NoError(t, err)
			require.NoError(t, f.Next(acudiente))

			err = f.Next(wizard.Fields{
				"nombre": "Tomás", "apellido": "Gómez", "gradoAspirado": "Párvulos",
				"fechaNacimiento": "2020-03-10", "registroCivil": tt.value,
			})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.value, f.Data()[StepEstudiante]["registroCivil"])
				return
			}
			vErr, ok := core.AsValidationError(err)
			require.True(t, ok, "error = %v", err)
			assert.Contains(t, vErr.FieldMap(), "registroCivil")
		})
	}
}
