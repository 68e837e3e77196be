package wizard

import (
	"encoding/json"
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
)

// Fields is the raw input of one step, keyed by field name.
type Fields map[string]string

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Step is one section of a wizard. Validate returns the cleaned values of the step or
// a *core.ValidationError with field scoped messages.
type Step interface {
	ID() string
	Fields() []string
	Validate(in Fields) (Fields, error)
}

// Defaulter is implemented by forms filling optional fields left blank.
type Defaulter interface {
	SetDefaults()
}

type formStep[T any] struct {
	id         string
	fields     []string
	validate   *validator.Validate
	translator ut.Translator
}

// NewFormStep builds a Step out of the struct form T. T must only have string fields;
// their json tags name the step fields and their validate tags declare the constraints.
func NewFormStep[T any](id string, validate *validator.Validate, translator ut.Translator) Step {
	return &formStep[T]{
		id:         id,
		fields:     jsonFields(reflect.TypeOf((*T)(nil)).Elem()),
		validate:   validate,
		translator: translator,
	}
}

func (s *formStep[T]) ID() string { return s.id }

func (s *formStep[T]) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *formStep[T]) Validate(in Fields) (Fields, error) {
	form := new(T)
	if err := decode(in, form); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.id)
	}
	cleanStrings(reflect.ValueOf(form).Elem())
	if d, ok := interface{}(form).(Defaulter); ok {
		d.SetDefaults()
	}

	if err := s.validate.Struct(form); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return nil, core.NewValidationError(nil, core.TranslateErrors(vErrs, s.translator)...)
		}
		return nil, errors.Wrapf(err, "validating %s", s.id)
	}

	out := make(Fields, len(s.fields))
	if err := decode(form, &out); err != nil {
		return nil, errors.Wrapf(err, "encoding %s", s.id)
	}
	return out, nil
}

// decode moves values between maps and forms through their json representation.
func decode(src, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func cleanStrings(v reflect.Value) {
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(core.CleanString(f.String()))
		}
	}
}

func jsonFields(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		names = append(names, name)
	}
	return names
}
