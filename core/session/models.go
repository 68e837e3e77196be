package session

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
)

// LoginPath is where users land whenever their session ends.
const LoginPath = "/login"

var (
	ErrInvalidRole    = errors.New("rol desconocido")
	ErrMissingToken   = errors.New("la respuesta de autenticación no incluye un token")
	ErrInvalidUsuario = errors.New("la respuesta de autenticación no identifica al usuario")
)

// Roles
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleProfesor  Role = "PROFESOR"
	RoleAcudiente Role = "ACUDIENTE"
	RoleAspirante Role = "ASPIRANTE"
)

var (
	AllRoles = []Role{RoleAdmin, RoleProfesor, RoleAcudiente, RoleAspirante}

	roleLabels = map[Role]string{
		RoleAdmin:     "Administrador",
		RoleProfesor:  "Profesor",
		RoleAcudiente: "Acudiente",
		RoleAspirante: "Aspirante",
	}
)

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(core.CleanString(s)))
	if !role.Valid() {
		return "", errors.Wrapf(ErrInvalidRole, "%q", s)
	}
	return role, nil
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	return roleLabels[r]
}

// Session is the authenticated user. The token is persisted under its own key,
// the rest is the JSON stored under the "user" key.
type Session struct {
	UserID             int64  `json:"id"`
	DisplayName        string `json:"nombre"`
	Email              string `json:"correo"`
	Role               Role   `json:"rol"`
	MustChangePassword bool   `json:"cambiarPass"`
	Token              string `json:"-"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

func (s Session) validate() error {
	if s.Token == "" {
		return ErrMissingToken
	}
	if s.UserID <= 0 {
		return ErrInvalidUsuario
	}
	if !s.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", s.Role)
	}
	return nil
}

// AuthResponse is what the backend answers to login, reset-password and first-login.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType,omitempty"`
	ExpiresIn   int64  `json:"expiresIn,omitempty"`
	UsuarioID   int64  `json:"usuarioId"`
	Nombre      string `json:"nombre"`
	Correo      string `json:"correo"`
	Rol         string `json:"rol"`
	CambiarPass bool   `json:"cambiarPass"`
	// older backends name the flag differently
	DebeResetearPassword bool `json:"debeResetearPassword,omitempty"`
}

func (r AuthResponse) MustChangePassword() bool {
	return r.CambiarPass || r.DebeResetearPassword
}

// Session builds the Session described by the response.
func (r AuthResponse) Session() (Session, error) {
	sess := Session{
		UserID:             r.UsuarioID,
		DisplayName:        r.Nombre,
		Email:              r.Correo,
		Role:               Role(strings.ToUpper(r.Rol)),
		MustChangePassword: r.MustChangePassword(),
		Token:              r.AccessToken,
	}
	if err := sess.validate(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

type LoginRequest struct {
	Correo   string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Correo = core.CleanString(lr.Correo, true /* lower */)
	return validate.Struct(lr)
}

// FirstLoginRequest swaps the temporary password handed out by the school for a personal one.
type FirstLoginRequest struct {
	Correo           string `json:"correo" validate:"required,email"`
	PasswordTemporal string `json:"passwordTemporal" validate:"required"`
	NuevaPassword    string `json:"nuevaPassword" validate:"required"`
	Confirmacion     string `json:"confirmacion" validate:"required,eqfield=NuevaPassword"`
}

func (fr *FirstLoginRequest) Validate(validate *validator.Validate) error {
	fr.Correo = core.CleanString(fr.Correo, true /* lower */)
	return validate.Struct(fr)
}

type ResetPasswordRequest struct {
	Correo        string `json:"correo" validate:"required,email"`
	NuevaPassword string `json:"nuevaPassword" validate:"required"`
	Confirmacion  string `json:"confirmacion" validate:"required,eqfield=NuevaPassword"`
}

func (rr *ResetPasswordRequest) Validate(validate *validator.Validate) error {
	rr.Correo = core.CleanString(rr.Correo, true /* lower */)
	return validate.Struct(rr)
}
