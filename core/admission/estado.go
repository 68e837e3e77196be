package admission

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
)

var ErrInvalidEstado = errors.New("estado de inscripción desconocido")

// Estado is the admission status of an applicant, as the backend names it.
type Estado string

const (
	EstadoSinRevisar       Estado = "SIN_REVISAR"
	EstadoRevisado         Estado = "REVISADO"
	EstadoEsperaEntrevista Estado = "ESPERA_ENTREVISTA"
	EstadoAprobado         Estado = "APROBADO"
	EstadoRechazado        Estado = "RECHAZADO"
)

var (
	Estados = []Estado{EstadoSinRevisar, EstadoRevisado, EstadoEsperaEntrevista, EstadoAprobado, EstadoRechazado}

	estadoLabels = map[Estado]string{
		EstadoSinRevisar:       "Sin revisar",
		EstadoRevisado:         "Revisado",
		EstadoEsperaEntrevista: "Espera de entrevista",
		EstadoAprobado:         "Aprobado",
		EstadoRechazado:        "Rechazado",
	}

	// older screens spelled some states differently
	estadoAliases = map[string]Estado{
		"PENDIENTE":            EstadoSinRevisar,
		"EN_REVISION":          EstadoRevisado,
		"ENTREVISTA":           EstadoEsperaEntrevista,
		"ESPERA_DE_ENTREVISTA": EstadoEsperaEntrevista,
		"ADMITIDO":             EstadoAprobado,
		"NO_ADMITIDO":          EstadoRechazado,
	}
)

// ParseEstado accepts the backend constants as well as their labels in any casing.
func ParseEstado(s string) (Estado, error) {
	key := strings.ToUpper(core.CleanString(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	est := Estado(key)
	if est.Valid() {
		return est, nil
	}
	if est, ok := estadoAliases[key]; ok {
		return est, nil
	}
	return "", errors.Wrapf(ErrInvalidEstado, "%q", s)
}

func (e Estado) Valid() bool {
	_, ok := estadoLabels[e]
	return ok
}

func (e Estado) Label() string {
	if label, ok := estadoLabels[e]; ok {
		return label
	}
	return string(e)
}

// Final reports whether no further decision is expected.
func (e Estado) Final() bool {
	return e == EstadoAprobado || e == EstadoRechazado
}

// Label returns the display text of a raw backend status, unknown values as they come.
func Label(s string) string {
	est, err := ParseEstado(s)
	if err != nil {
		return s
	}
	return est.Label()
}
