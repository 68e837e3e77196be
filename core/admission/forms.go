package admission

// Grades a child can be pre-registered for.
var Grados = []string{"Párvulos", "Caminadores", "Pre-jardín"}

// Public pre-registration, filled in by a guardian without an account.

type AcudientePublicoForm struct {
	Correo            string `json:"correo" validate:"required,email,max=100"`
	NombreAcudiente   string `json:"nombreAcudiente" validate:"required,min=3,max=50,personname"`
	ApellidoAcudiente string `json:"apellidoAcudiente" validate:"required,min=3,max=50,personname"`
	Telefono          string `json:"telefono" validate:"required,phone10"`
}

type MenorForm struct {
	NombreMenor     string `json:"nombreMenor" validate:"required,min=3,max=50,personname"`
	ApellidoMenor   string `json:"apellidoMenor" validate:"required,min=3,max=50,personname"`
	Grado           string `json:"grado" validate:"required,oneof=Párvulos Caminadores Pre-jardín"`
	FechaNacimiento string `json:"fechaNacimiento" validate:"required,isodate,minage=3"`
}

type SaludForm struct {
	Alergias string `json:"alergias" validate:"max=500"`
}

// Applicant formulario, filled in by a logged in ASPIRANTE.

type AcudienteForm struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=50,personname"`
	Apellido string `json:"apellido" validate:"required,min=2,max=50,personname"`
	Telefono string `json:"telefono" validate:"required,mobile_co"`
	Correo   string `json:"correo" validate:"required,email,max=100"`
}

type EstudianteForm struct {
	Nombre          string `json:"nombre" validate:"required,min=2,max=50,personname"`
	Apellido        string `json:"apellido" validate:"required,min=2,max=50,personname"`
	GradoAspirado   string `json:"gradoAspirado" validate:"required,oneof=Párvulos Caminadores Pre-jardín"`
	FechaNacimiento string `json:"fechaNacimiento" validate:"required,isodate,minage=3"`
	RegistroCivil   string `json:"registroCivil" validate:"required,min=5,max=20"`
}

type MedicoForm struct {
	Alergias           string `json:"alergias" validate:"max=500"`
	CondicionesMedicas string `json:"condicionesMedicas" validate:"max=500"`
	Medicamentos       string `json:"medicamentos" validate:"max=500"`
}

func (f *MedicoForm) SetDefaults() {
	if f.Alergias == "" {
		f.Alergias = "Ninguna"
	}
	if f.CondicionesMedicas == "" {
		f.CondicionesMedicas = "Ninguna"
	}
	if f.Medicamentos == "" {
		f.Medicamentos = "Ninguno"
	}
}
