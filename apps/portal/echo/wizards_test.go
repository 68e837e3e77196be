package echoapi_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/veritas/tests"
)

type wizardResp struct {
	Paso      string                 `json:"paso"`
	Indice    int                    `json:"indice"`
	Total     int                    `json:"total"`
	Ultimo    bool                   `json:"ultimo"`
	Campos    []string               `json:"campos"`
	Valores   map[string]string      `json:"valores"`
	Enviado   bool                   `json:"enviado"`
	Resultado map[string]interface{} `json:"resultado"`
}

var (
	acudientePublico = map[string]string{
		"correo":            "familia@correo.com",
		"nombreAcudiente":   "Laura",
		"apellidoAcudiente": "Gomez",
		"telefono":          "3001234567",
	}
	menor = map[string]string{
		"nombreMenor":     "Sofia",
		"apellidoMenor":   "Gomez",
		"grado":           "Caminadores",
		"fechaNacimiento": "2020-02-01",
	}
)

func wizardStep(t *testing.T, v *visitor, method, path string, body interface{}, wantCode int) wizardResp {
	t.Helper()
	rec := v.do(method, path, body)
	require.Equal(t, wantCode, rec.Code, rec.Body.String())
	var w wizardResp
	decode(t, rec, &w)
	return w
}

func TestPreinscripcion(t *testing.T) {
	p := newPortal(t)
	p.backend.HandleJSON("POST /aspirantes/preinscripcion-publica", http.StatusCreated, map[string]interface{}{
		"claveTemporal": "K3Y-TEMP", "aspiranteId": 7, "estudianteId": 21,
	})
	v := p.visitor(t)

	w := wizardStep(t, v, http.MethodGet, "/preinscripcion", nil, http.StatusOK)
	assert.Equal(t, "acudiente", w.Paso)
	assert.Equal(t, 3, w.Total)
	assert.ElementsMatch(t, []string{"correo", "nombreAcudiente", "apellidoAcudiente", "telefono"}, w.Campos)

	// invalid data keeps the wizard where it was
	rec := v.do(http.MethodPost, "/preinscripcion/siguiente", map[string]string{"correo": "mal", "telefono": "12"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "correo")
	assert.Contains(t, fields, "telefono")

	w = wizardStep(t, v, http.MethodGet, "/preinscripcion", nil, http.StatusOK)
	assert.Equal(t, 0, w.Indice)

	w = wizardStep(t, v, http.MethodPost, "/preinscripcion/siguiente", acudientePublico, http.StatusOK)
	assert.Equal(t, "menor", w.Paso)

	// going back shows what was entered
	w = wizardStep(t, v, http.MethodPost, "/preinscripcion/anterior", nil, http.StatusOK)
	assert.Equal(t, acudientePublico, w.Valores)
	wizardStep(t, v, http.MethodPost, "/preinscripcion/siguiente", acudientePublico, http.StatusOK)

	w = wizardStep(t, v, http.MethodPost, "/preinscripcion/siguiente", menor, http.StatusOK)
	assert.Equal(t, "salud", w.Paso)
	assert.True(t, w.Ultimo)

	// the last step is submitted, not advanced
	rec = v.do(http.MethodPost, "/preinscripcion/siguiente", map[string]string{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	w = wizardStep(t, v, http.MethodPost, "/preinscripcion/enviar", map[string]string{"alergias": "Maní"}, http.StatusCreated)
	assert.True(t, w.Enviado)
	assert.Equal(t, "K3Y-TEMP", w.Resultado["claveTemporal"])

	reqs := p.backend.Requests("POST /aspirantes/preinscripcion-publica")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{
		"correo": "familia@correo.com", "nombreAcudiente": "Laura", "apellidoAcudiente": "Gomez",
		"telefono": "3001234567", "nombreMenor": "Sofia", "apellidoMenor": "Gomez",
		"grado": "Caminadores", "fechaNacimiento": "2020-02-01", "alergias": "Maní"
	}`, reqs[0].Body)

	// the temporary key is shown once
	for i := 0; i < 2; i++ {
		rec = v.do(http.MethodGet, "/preinscripcion")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "K3Y-TEMP")
		var again wizardResp
		decode(t, rec, &again)
		assert.True(t, again.Enviado)
		assert.Nil(t, again.Resultado)
	}

	// submitted wizards are frozen until restarted
	rec = v.do(http.MethodPost, "/preinscripcion/enviar", map[string]string{"alergias": "Maní"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, p.backend.Requests("POST /aspirantes/preinscripcion-publica"), 1)

	w = wizardStep(t, v, http.MethodDelete, "/preinscripcion", nil, http.StatusOK)
	assert.False(t, w.Enviado)
	assert.Equal(t, 0, w.Indice)
}

func TestPreinscripcion_submitFailureKeepsData(t *testing.T) {
	p := newPortal(t)
	p.backend.HandleJSON("POST /aspirantes/preinscripcion-publica", http.StatusConflict,
		map[string]string{"message": "Ya existe una preinscripción con este correo"})
	v := p.visitor(t)

	wizardStep(t, v, http.MethodPost, "/preinscripcion/siguiente", acudientePublico, http.StatusOK)
	wizardStep(t, v, http.MethodPost, "/preinscripcion/siguiente", menor, http.StatusOK)

	rec := v.do(http.MethodPost, "/preinscripcion/enviar", map[string]string{"alergias": ""})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// one notification, from the wizard
	notes := notifications(t, v)
	require.Len(t, notes, 1)
	assert.Equal(t, "error", notes[0].Kind)
	assert.Equal(t, "Ya existe una preinscripción con este correo", notes[0].Message)

	w := wizardStep(t, v, http.MethodGet, "/preinscripcion", nil, http.StatusOK)
	assert.Equal(t, "salud", w.Paso)
	assert.False(t, w.Enviado)
}

func TestPreinscripcion_estadoPublico(t *testing.T) {
	p := newPortal(t)
	p.backend.HandleJSON("GET /aspirantes/7/estado-publico", http.StatusOK, map[string]interface{}{
		"estado": "ESPERA_ENTREVISTA", "fechaEntrevista": "2026-11-03",
	})
	v := p.visitor(t)

	rec := v.do(http.MethodGet, "/preinscripcion/estado/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"estado":"ESPERA_ENTREVISTA","estadoLabel":"Espera de entrevista","finalizado":false,"fechaEntrevista":"2026-11-03"}`, rec.Body.String())

	rec = v.do(http.MethodGet, "/preinscripcion/estado/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolicitarClave(t *testing.T) {
	p := newPortal(t)
	p.backend.HandleJSON("POST /aspirantes/solicitar-clave", http.StatusOK, map[string]interface{}{
		"claveTemporal": "NUEVA-1", "aspiranteId": 7,
	})
	v := p.visitor(t)

	rec := v.do(http.MethodPost, "/solicitar-clave", map[string]string{"correo": "no"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = v.do(http.MethodPost, "/solicitar-clave", map[string]string{"correo": " Familia@Correo.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"claveTemporal":"NUEVA-1","aspiranteId":7}`, rec.Body.String())

	reqs := p.backend.Requests("POST /aspirantes/solicitar-clave")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"correo":"familia@correo.com"}`, reqs[0].Body)
}

// the applicant form goes to the backend once, with every step merged
func TestAspirante_formulario(t *testing.T) {
	p := newPortal(t, aspAcc)
	p.backend.HandleJSON("GET /aspirantes/me", http.StatusOK, map[string]interface{}{
		"id": 7, "nombre": aspAcc.Nombre, "correo": aspAcc.Correo, "estado": "SIN_REVISAR",
	})
	p.backend.HandleJSON("POST /aspirantes/7/formulario", http.StatusOK, map[string]string{"estado": "SIN_REVISAR"})
	v := p.visitor(t)
	v.login(aspAcc)

	w := wizardStep(t, v, http.MethodGet, "/aspirante/formulario", nil, http.StatusOK)
	assert.Equal(t, "acudiente", w.Paso)

	wizardStep(t, v, http.MethodPost, "/aspirante/formulario/siguiente", map[string]string{
		"nombre": "Laura", "apellido": "Gomez", "telefono": "3001234567", "correo": "laura@correo.com",
	}, http.StatusOK)
	wizardStep(t, v, http.MethodPost, "/aspirante/formulario/siguiente", map[string]string{
		"nombre": "Sofia", "apellido": "Gomez", "gradoAspirado": "Párvulos",
		"fechaNacimiento": "2021-06-15", "registroCivil": "RC12345",
	}, http.StatusOK)
	w = wizardStep(t, v, http.MethodPost, "/aspirante/formulario/enviar", map[string]string{}, http.StatusCreated)
	assert.True(t, w.Enviado)
	assert.Equal(t, "SIN_REVISAR", w.Resultado["estado"])

	reqs := p.backend.Requests("POST /aspirantes/7/formulario")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok-"+aspAcc.Correo, reqs[0].Auth)
	assert.JSONEq(t, `{
		"acudiente": {"nombre": "Laura", "apellido": "Gomez", "telefono": "3001234567", "correo": "laura@correo.com"},
		"estudiante": {"nombre": "Sofia", "apellido": "Gomez", "gradoAspirado": "Párvulos",
			"fechaNacimiento": "2021-06-15", "registroCivil": "RC12345"},
		"medico": {"alergias": "Ninguna", "condicionesMedicas": "Ninguna", "medicamentos": "Ninguno"}
	}`, reqs[0].Body)

	// Me is asked once per form
	assert.Len(t, p.backend.Requests("GET /aspirantes/me"), 1)
}

func TestAspirante_estado(t *testing.T) {
	p := newPortal(t, aspAcc)
	p.backend.HandleJSON("GET /aspirantes/me", http.StatusOK, map[string]interface{}{"id": 7})
	p.backend.HandleJSON("GET /aspirantes/7/estado", http.StatusOK, map[string]string{"estado": "APROBADO"})
	v := p.visitor(t)
	v.login(aspAcc)

	rec := v.do(http.MethodGet, "/aspirante/estado")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"estado":"APROBADO","estadoLabel":"Aprobado","finalizado":true}`, rec.Body.String())
}

// a slow backend while starting the form must not hold the rest of the browser
func TestAspirante_formularioStartDoesNotBlockBrowser(t *testing.T) {
	p := newPortal(t, aspAcc)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	p.backend.Handle("GET /aspirantes/me", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		testutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"id": 7, "nombre": aspAcc.Nombre, "correo": aspAcc.Correo, "estado": "SIN_REVISAR",
		})
	})
	v := p.visitor(t)
	v.login(aspAcc)

	formulario := make(chan int, 1)
	go func() { formulario <- v.do(http.MethodGet, "/aspirante/formulario").Code }()
	require.Eventually(t, func() bool {
		return len(p.backend.Requests("GET /aspirantes/me")) == 1
	}, 2*time.Second, 5*time.Millisecond)

	preinscripcion := make(chan int, 1)
	go func() { preinscripcion <- v.do(http.MethodGet, "/preinscripcion").Code }()
	select {
	case code := <-preinscripcion:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("pre-registration waited for the applicant form")
	}

	unblock()
	assert.Equal(t, http.StatusOK, <-formulario)
	assert.Len(t, p.backend.Requests("GET /aspirantes/me"), 1)
}
