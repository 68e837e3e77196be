package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/admission"
	"github.com/trezcool/veritas/core/notify"
	"github.com/trezcool/veritas/core/wizard"
)

// printNotifier shows wizard notifications inline.
type printNotifier struct {
	cli *commandLine
}

func (n printNotifier) Error(message string) notify.Notification {
	fmt.Fprintf(n.cli.out, "! %s\n", message)
	return notify.Notification{Message: message, Kind: notify.KindError, CreatedAt: time.Now()}
}

func (cli *commandLine) estado(ctx context.Context, id int64) error {
	est, err := cli.client.Aspirantes().EstadoPublico(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Estado: %s\n", admission.Label(est.Estado))
	if e, err := admission.ParseEstado(est.Estado); err == nil && e.Final() {
		fmt.Fprintln(cli.out, "El proceso de admisión finalizó")
	}
	if est.FechaEntrevista != "" {
		fmt.Fprintf(cli.out, "Entrevista: %s\n", est.FechaEntrevista)
	}
	if e := est.Estudiante; e != nil {
		fmt.Fprintf(cli.out, "Estudiante: %s %s (%s)\n", e.Nombre, e.Apellido, e.Grado)
	}
	return nil
}

func (cli *commandLine) solicitarClave(ctx context.Context, correo string) error {
	correo = core.CleanString(correo, true /* lower */)
	if err := cli.validate.Var(correo, "required,email"); err != nil {
		msg := "correo inválido"
		if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
			msg = vErrs[0].Translate(cli.translator)
		}
		return core.NewValidationError(nil, core.FieldError{Field: "correo", Error: msg})
	}

	clave, err := cli.client.Aspirantes().SolicitarClave(ctx, correo)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Clave temporal: %s\n", clave.ClaveTemporal)
	fmt.Fprintf(cli.out, "Aspirante: %d\n", clave.AspiranteID)
	return nil
}

// preinscripcion walks the public pre-registration wizard on the terminal. A blank answer
// keeps the value shown between brackets.
func (cli *commandLine) preinscripcion(ctx context.Context) error {
	wiz, err := admission.NewPreinscripcion(cli.client.Aspirantes(), cli.validate, cli.translator, printNotifier{cli})
	if err != nil {
		return err
	}

	for {
		step := wiz.Current()
		fmt.Fprintf(cli.out, "\nPaso %d de %d: %s\n", wiz.Index()+1, wiz.Len(), step.ID())

		draft, err := cli.promptFields(step, wiz.Input())
		if err != nil {
			return err
		}
		for {
			if !wiz.IsLast() {
				err = wiz.Next(draft)
			} else {
				res, sErr := wiz.Submit(ctx, draft)
				if sErr == nil {
					fmt.Fprintln(cli.out, "\nPreinscripción enviada.")
					fmt.Fprintf(cli.out, "Clave temporal: %s (guárdela, no se vuelve a mostrar)\n", res.ClaveTemporal)
					fmt.Fprintf(cli.out, "Aspirante: %d\n", res.AspiranteID)
					return nil
				}
				err = sErr
			}
			if err == nil {
				break
			}

			if _, ok := core.AsValidationError(err); ok {
				fmt.Fprintf(cli.out, "! %s\n", cli.explain(err))
				if draft, err = cli.promptFields(step, draft); err != nil {
					return err
				}
				continue
			}
			// the wizard already reported the failure and kept every answer
			retry, rErr := cli.confirm("¿Reintentar el envío?")
			if rErr != nil {
				return rErr
			}
			if !retry {
				return errors.Wrap(err, "preinscripción")
			}
		}
	}
}

func (cli *commandLine) promptFields(step wizard.Step, current wizard.Fields) (wizard.Fields, error) {
	out := make(wizard.Fields, len(current))
	for _, name := range step.Fields() {
		prompt := "  " + name
		if name == "grado" {
			prompt += " (" + strings.Join(admission.Grados, ", ") + ")"
		}
		if v := current[name]; v != "" {
			prompt += " [" + v + "]"
		}
		fmt.Fprint(cli.out, prompt+": ")

		line, err := cli.readLine()
		if err != nil {
			return nil, err
		}
		if line = strings.TrimSpace(line); line == "" {
			line = current[name]
		}
		out[name] = line
	}
	return out, nil
}

func (cli *commandLine) confirm(question string) (bool, error) {
	fmt.Fprint(cli.out, question+" [s/N]: ")
	line, err := cli.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "si", "sí", "y", "yes":
		return true, nil
	}
	return false, nil
}
