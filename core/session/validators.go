package session

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/veritas/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("la contraseña debe tener al menos %d caracteres", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "la contraseña no puede contener espacios"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "la contraseña debe tener al menos una mayúscula, una minúscula y un número"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "la contraseña es demasiado parecida a tu correo"

	pwdReusedTag  = "pwdreused"
	pwdReusedText = "la nueva contraseña debe ser distinta a la temporal"

	eqFieldTag  = "eqfield"
	eqFieldText = "las contraseñas no coinciden"
)

// InitValidators registers the password policy on the request types of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(passwordStructValidation, FirstLoginRequest{}, ResetPasswordRequest{})

	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdReusedTag, pwdReusedText)
	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)
}

// passwordStructValidation does struct level validation on FirstLoginRequest and ResetPasswordRequest.
func passwordStructValidation(sl validator.StructLevel) {
	switch req := sl.Current().Interface().(type) {
	case FirstLoginRequest:
		if req.NuevaPassword != "" && req.NuevaPassword == req.PasswordTemporal {
			sl.ReportError(req.NuevaPassword, "nuevaPassword", "NuevaPassword", pwdReusedTag, "")
			return
		}
		validatePassword(req.NuevaPassword, req.Correo, sl)
	case ResetPasswordRequest:
		validatePassword(req.NuevaPassword, req.Correo, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - complexity: 1 upper, 1 lower, 1 digit
// - not similar to the email
func validatePassword(pwd, email string, sl validator.StructLevel) {
	if pwd == "" { // reported by `required`
		return
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "nuevaPassword", "NuevaPassword", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var hasUpper, hasLower, hasDig bool
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
		hasDig = hasDig || unicode.IsDigit(char)
	}
	if !(hasUpper && hasLower && hasDig) {
		reportErr(pwdComplexityTag)
		return
	}

	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	if similarity(pwd, local) >= pwdMaxSim || similarity(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	pwd, attr = strings.ToLower(pwd), strings.ToLower(attr)
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}
