package session

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/veritas/core"
)

func TestFirstLoginRequest_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)

	valid := FirstLoginRequest{
		Correo:           "  Maria.Perez@Veritas.edu ",
		PasswordTemporal: "TMP-4821",
		NuevaPassword:    "Jardin2025",
		Confirmacion:     "Jardin2025",
	}

	tests := []struct {
		name       string
		mutate     func(r *FirstLoginRequest)
		wantFields map[string]string
	}{
		{name: "valid"},
		{
			name:       "bad email",
			mutate:     func(r *FirstLoginRequest) { r.Correo = "maria" },
			wantFields: map[string]string{"correo": ""}, // message comes from the stock es translations
		},
		{
			name:       "too short",
			mutate:     func(r *FirstLoginRequest) { r.NuevaPassword, r.Confirmacion = "Ab1", "Ab1" },
			wantFields: map[string]string{"nuevaPassword": pwdMinLenText},
		},
		{
			name:       "whitespace",
			mutate:     func(r *FirstLoginRequest) { r.NuevaPassword, r.Confirmacion = "Jardin 2025", "Jardin 2025" },
			wantFields: map[string]string{"nuevaPassword": pwdNoSpaceText},
		},
		{
			name:       "no uppercase",
			mutate:     func(r *FirstLoginRequest) { r.NuevaPassword, r.Confirmacion = "jardin2025", "jardin2025" },
			wantFields: map[string]string{"nuevaPassword": pwdComplexityText},
		},
		{
			name:       "no digit",
			mutate:     func(r *FirstLoginRequest) { r.NuevaPassword, r.Confirmacion = "JardinVeritas", "JardinVeritas" },
			wantFields: map[string]string{"nuevaPassword": pwdComplexityText},
		},
		{
			name:       "similar to email",
			mutate:     func(r *FirstLoginRequest) { r.NuevaPassword, r.Confirmacion = "Maria.perez1", "Maria.perez1" },
			wantFields: map[string]string{"nuevaPassword": pwdAttrSimText},
		},
		{
			name:       "same as temporary",
			mutate:     func(r *FirstLoginRequest) { r.PasswordTemporal = "Jardin2025" },
			wantFields: map[string]string{"nuevaPassword": pwdReusedText},
		},
		{
			name:       "confirmation mismatch",
			mutate:     func(r *FirstLoginRequest) { r.Confirmacion = "Jardin2024" },
			wantFields: map[string]string{"confirmacion": eqFieldText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			err := req.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				assert.Equal(t, "maria.perez@veritas.edu", req.Correo)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Validate() error = %v, want validator.ValidationErrors", err)
			}
			got := core.ValidationError{Fields: core.TranslateErrors(vErrs, translator)}.FieldMap()
			assert.Len(t, got, len(tt.wantFields))
			for field, msg := range tt.wantFields {
				if assert.Contains(t, got, field) && msg != "" {
					assert.Equal(t, msg, got[field])
				}
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "ADMIN", want: RoleAdmin},
		{in: " profesor ", want: RoleProfesor},
		{in: "Acudiente", want: RoleAcudiente},
		{in: "aspirante", want: RoleAspirante},
		{in: "root", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}
