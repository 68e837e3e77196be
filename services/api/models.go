package apisvc

import (
	"mime"
	"path"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
)

// Page is a Spring Data page.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// Document is a binary download (listado.pdf, boletin.pdf).
type Document struct {
	ContentType string
	Filename    string
	Data        []byte
}

func filenameFrom(disposition, urlPath string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return path.Base(urlPath)
}

// Usuarios

type Usuario struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Correo string `json:"correo"`
	Rol    string `json:"rol"`
	Estado bool   `json:"estado"`
}

type UsuarioRequest struct {
	Nombre string `json:"nombre" validate:"required,max=100"`
	Correo string `json:"correo" validate:"required,email"`
	Rol    string `json:"rol" validate:"required,oneof=ADMIN PROFESOR ACUDIENTE ASPIRANTE"`
}

func (ur *UsuarioRequest) Validate(validate *validator.Validate) error {
	ur.Nombre = core.CleanString(ur.Nombre)
	ur.Correo = core.CleanString(ur.Correo, true /* lower */)
	if role, err := session.ParseRole(ur.Rol); err == nil {
		ur.Rol = string(role)
	}
	return validate.Struct(ur)
}

type UsuarioUpdateRequest struct {
	Nombre string `json:"nombre" validate:"required,max=100"`
	Correo string `json:"correo" validate:"omitempty,email"`
}

func (ur *UsuarioUpdateRequest) Validate(validate *validator.Validate) error {
	ur.Nombre = core.CleanString(ur.Nombre)
	ur.Correo = core.CleanString(ur.Correo, true /* lower */)
	return validate.Struct(ur)
}

// UsuarioCreado carries the one-time credentials of a new account.
type UsuarioCreado struct {
	Usuario
	UsuarioTemporal    string `json:"usuarioTemporal,omitempty"`
	ContrasenaTemporal string `json:"contrasenaTemporal,omitempty"`
}

// Aspirantes

type EstudianteSimple struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Grado    string `json:"grado,omitempty"`
}

type Aspirante struct {
	ID                int64              `json:"id"`
	EstadoInscripcion string             `json:"estadoInscripcion"`
	FechaEntrevista   string             `json:"fechaEntrevista,omitempty"`
	Usuario           *Usuario           `json:"usuario,omitempty"`
	Estudiantes       []EstudianteSimple `json:"estudiantes,omitempty"`
}

type AspiranteMe struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Correo string `json:"correo"`
	Estado string `json:"estado"`
}

type EstadoPreinscripcion struct {
	Estado          string `json:"estado"`
	FechaEntrevista string `json:"fechaEntrevista,omitempty"`
}

type EstadoPublico struct {
	Estado          string `json:"estado"`
	FechaEntrevista string `json:"fechaEntrevista,omitempty"`
	Estudiante      *struct {
		Nombre          string `json:"nombre"`
		Apellido        string `json:"apellido"`
		Grado           string `json:"grado"`
		FechaNacimiento string `json:"fechaNacimiento"`
	} `json:"estudiante,omitempty"`
}

type PreinscripcionPublicaRequest struct {
	Correo            string `json:"correo"`
	NombreAcudiente   string `json:"nombreAcudiente"`
	ApellidoAcudiente string `json:"apellidoAcudiente"`
	Telefono          string `json:"telefono"`
	NombreMenor       string `json:"nombreMenor"`
	ApellidoMenor     string `json:"apellidoMenor"`
	Grado             string `json:"grado"`
	FechaNacimiento   string `json:"fechaNacimiento"`
	Alergias          string `json:"alergias"`
}

// Preinscripcion is the answer to a public pre-registration: the temporary key is shown once.
type Preinscripcion struct {
	ClaveTemporal string `json:"claveTemporal"`
	AspiranteID   int64  `json:"aspiranteId"`
	EstudianteID  int64  `json:"estudianteId"`
}

type ClaveTemporal struct {
	ClaveTemporal string `json:"claveTemporal"`
	AspiranteID   int64  `json:"aspiranteId"`
}

type FormularioAcudiente struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Telefono string `json:"telefono"`
	Correo   string `json:"correo"`
}

type FormularioEstudiante struct {
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	GradoAspirado   string `json:"gradoAspirado"`
	FechaNacimiento string `json:"fechaNacimiento"`
	RegistroCivil   string `json:"registroCivil"`
}

type FormularioMedico struct {
	Alergias           string `json:"alergias"`
	CondicionesMedicas string `json:"condicionesMedicas"`
	Medicamentos       string `json:"medicamentos"`
}

type FormularioPreinscripcion struct {
	Acudiente  FormularioAcudiente  `json:"acudiente"`
	Estudiante FormularioEstudiante `json:"estudiante"`
	Medico     FormularioMedico     `json:"medico"`
}

// Grupos

type Grupo struct {
	ID                  int64              `json:"id"`
	Nombre              string             `json:"nombre"`
	Grado               string             `json:"grado"`
	Capacidad           int                `json:"capacidad"`
	Estado              string             `json:"estado"`
	Profesor            *Usuario           `json:"profesor,omitempty"`
	ProfesorNombre      string             `json:"profesorNombre,omitempty"`
	CantidadEstudiantes int                `json:"cantidadEstudiantes,omitempty"`
	Estudiantes         []EstudianteSimple `json:"estudiantes,omitempty"`
}

type GrupoRequest struct {
	Nombre     string `json:"nombre" validate:"required,max=50"`
	Grado      string `json:"grado" validate:"required"`
	Capacidad  int    `json:"capacidad" validate:"required,min=1,max=10"`
	ProfesorID int64  `json:"profesorId" validate:"required,gt=0"`
}

func (gr *GrupoRequest) Validate(validate *validator.Validate) error {
	gr.Nombre = core.CleanString(gr.Nombre)
	gr.Grado = core.CleanString(gr.Grado)
	return validate.Struct(gr)
}

// Estudiantes

type Estudiante struct {
	ID        int64    `json:"id"`
	Nombre    string   `json:"nombre"`
	Apellido  string   `json:"apellido"`
	Grado     string   `json:"grado"`
	RegCivil  string   `json:"regCivil,omitempty"`
	Estado    string   `json:"estado,omitempty"`
	Acudiente *Usuario `json:"acudiente,omitempty"`
	Grupo     *Grupo   `json:"grupo,omitempty"`
}

// Calificaciones & logros

type Logro struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	Categoria   string `json:"categoria"`
	Estado      string `json:"estado,omitempty"`
}

type Calificacion struct {
	ID             int64             `json:"id"`
	Valor          float64           `json:"valor"`
	Periodo        int               `json:"periodo"`
	Logro          *Logro            `json:"logro,omitempty"`
	Estudiante     *EstudianteSimple `json:"estudiante,omitempty"`
	ProfesorNombre string            `json:"profesorNombre,omitempty"`
}

type CalificacionRequest struct {
	Valor        float64 `json:"valor" validate:"required,min=1,max=5"`
	Periodo      int     `json:"periodo" validate:"required,min=1,max=4"`
	LogroID      int64   `json:"logroId" validate:"required,gt=0"`
	EstudianteID int64   `json:"estudianteId" validate:"required,gt=0"`
}

func (cr *CalificacionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cr)
}

// Citaciones

type Citacion struct {
	ID           int64    `json:"id"`
	Tipo         string   `json:"tipo"`
	Fecha        string   `json:"fecha"`
	Motivo       string   `json:"motivo"`
	EstadoCita   string   `json:"estadoCita"`
	Acudientes   []string `json:"acudientes,omitempty"`
	Profesores   []string `json:"profesores,omitempty"`
	AspiranteIDs []int64  `json:"aspiranteIds,omitempty"`
}

type CitacionRequest struct {
	Tipo         string  `json:"tipo" validate:"required,oneof=INDIVIDUAL GRUPAL ASPIRANTE"`
	Fecha        string  `json:"fecha" validate:"required,datetime=2006-01-02T15:04:05"`
	Motivo       string  `json:"motivo" validate:"required,max=500"`
	AcudienteIDs []int64 `json:"acudienteIds,omitempty"`
	ProfesorIDs  []int64 `json:"profesorIds,omitempty"`
	AspiranteIDs []int64 `json:"aspiranteIds,omitempty"`
}

func (cr *CitacionRequest) Validate(validate *validator.Validate) error {
	cr.Tipo = core.CleanString(cr.Tipo)
	cr.Motivo = core.CleanString(cr.Motivo)
	return validate.Struct(cr)
}

// Observaciones

type Observacion struct {
	ID          int64       `json:"id"`
	Fecha       string      `json:"fecha"`
	Descripcion string      `json:"descripcion"`
	Tipo        string      `json:"tipo"`
	Estudiante  *Estudiante `json:"estudiante,omitempty"`
	Profesor    *Usuario    `json:"profesor,omitempty"`
}

type ObservacionRequest struct {
	Fecha        string `json:"fecha" validate:"required,isodate"`
	Descripcion  string `json:"descripcion" validate:"required,max=1000"`
	Tipo         string `json:"tipo" validate:"required,oneof=ACADEMICA DISCIPLINARIA CONVIVENCIA LOGRO_DESTACADO"`
	EstudianteID int64  `json:"estudianteId" validate:"required,gt=0"`
}

func (ob *ObservacionRequest) Validate(validate *validator.Validate) error {
	ob.Descripcion = core.CleanString(ob.Descripcion)
	return validate.Struct(ob)
}
