package core

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// DateLayout is the wire format of calendar dates exchanged with the backend.
const DateLayout = "2006-01-02"

var (
	nowFunc = time.Now // mockable

	// custom validation tags & texts
	phone10Tag   = "phone10"
	phone10Text  = "{0} debe tener exactamente 10 dígitos"
	phone10Regex = regexp.MustCompile(`^\d{10}$`)

	mobileTag   = "mobile_co"
	mobileText  = "{0} debe ser un celular de 10 dígitos que empiece por 3"
	mobileRegex = regexp.MustCompile(`^3\d{9}$`)

	personNameTag   = "personname"
	personNameText  = "{0} solo puede contener letras y espacios"
	personNameRegex = regexp.MustCompile(`^\p{L}[\p{L} '\-]*$`)

	minAgeTag  = "minage"
	minAgeText = "{0} indica una edad menor a {1} años"

	dateTag  = "isodate"
	dateText = "{0} debe tener el formato AAAA-MM-DD"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "este campo es obligatorio"
)

// NewTranslator returns the Spanish translator used for validation messages.
func NewTranslator() ut.Translator {
	_es := es.New()
	uni := ut.New(_es, _es)
	translator, _ := uni.GetTranslator("es")
	return translator
}

// NewValidator returns a validator with the translations and custom validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(phone10Tag, phone10Validation)
	RegisterCustomTranslation(validate, translator, phone10Tag, phone10Text)

	_ = validate.RegisterValidation(mobileTag, mobileValidation)
	RegisterCustomTranslation(validate, translator, mobileTag, mobileText)

	_ = validate.RegisterValidation(personNameTag, personNameValidation)
	RegisterCustomTranslation(validate, translator, personNameTag, personNameText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	_ = validate.RegisterValidation(minAgeTag, minAgeValidation)
	RegisterCustomTranslation(validate, translator, minAgeTag, minAgeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// The text may reference the field as {0} and the tag param as {1}.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// TranslateErrors converts validator errors into field errors with translated messages.
func TranslateErrors(vErrs validator.ValidationErrors, translator ut.Translator) []FieldError {
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return flds
}

// Age returns the number of full years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Custom Global Validators

func phone10Validation(fl validator.FieldLevel) bool {
	return phone10Regex.MatchString(fl.Field().String())
}

// mobileValidation only allows Colombian mobile numbers: 10 digits starting with 3.
func mobileValidation(fl validator.FieldLevel) bool {
	return mobileRegex.MatchString(fl.Field().String())
}

func personNameValidation(fl validator.FieldLevel) bool {
	return personNameRegex.MatchString(fl.Field().String())
}

func dateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

// minAgeValidation checks that a DateLayout birthdate is at least `param` years in the past.
func minAgeValidation(fl validator.FieldLevel) bool {
	years, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	birth, err := time.Parse(DateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	now := nowFunc()
	if birth.After(now) {
		return false
	}
	return Age(birth, now) >= years
}
