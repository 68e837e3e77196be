package wizard

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/notify"
)

const submitAction = "submit"

var (
	ErrNoSteps     = errors.New("el asistente no tiene pasos")
	ErrFirstStep   = errors.New("ya está en el primer paso")
	ErrLastStep    = errors.New("el último paso se envía con Submit")
	ErrNotLastStep = errors.New("solo el último paso puede enviarse")
	ErrSubmitted   = errors.New("el formulario ya fue enviado")

	submitFailedText = "No se pudo enviar el formulario, intente de nuevo"
)

type (
	// Data holds the validated values of every merged step, keyed by step ID.
	Data map[string]Fields

	// SubmitFunc performs the single network call carrying the whole payload.
	SubmitFunc[R any] func(ctx context.Context, data Data) (R, error)

	// Notifier receives the error notifications of failed submissions.
	Notifier interface {
		Error(message string) notify.Notification
	}
)

func (d Data) clone() Data {
	out := make(Data, len(d))
	for id, flds := range d {
		out[id] = flds.clone()
	}
	return out
}

// Wizard walks a fixed sequence of steps, validating each before merging it, and submits
// the union once at the end. It is safe for concurrent use.
type Wizard[R any] struct {
	steps    []Step
	submit   SubmitFunc[R]
	notifier Notifier
	inflight core.Inflight

	mu        sync.Mutex
	index     int
	input     Fields
	data      Data
	submitted bool
}

func New[R any](steps []Step, submit SubmitFunc[R], notifier Notifier) (*Wizard[R], error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if seen[s.ID()] {
			return nil, errors.Errorf("paso duplicado %q", s.ID())
		}
		seen[s.ID()] = true
	}
	return &Wizard[R]{
		steps:    steps,
		submit:   submit,
		notifier: notifier,
		input:    Fields{},
		data:     Data{},
	}, nil
}

func (w *Wizard[R]) Len() int { return len(w.steps) }

// Index is the 0-based position of the current step.
func (w *Wizard[R]) Index() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *Wizard[R]) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps[w.index]
}

func (w *Wizard[R]) IsLast() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index == len(w.steps)-1
}

// Input returns the values staged for the current step: empty on a fresh step, the merged
// values when coming back to an earlier one.
func (w *Wizard[R]) Input() Fields {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input.clone()
}

// Data returns a copy of every merged step.
func (w *Wizard[R]) Data() Data {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data.clone()
}

// Submitting reports whether a submission is in flight.
func (w *Wizard[R]) Submitting() bool {
	return w.inflight.Busy(submitAction)
}

// Submitted reports whether the wizard completed. The server's result is only handed to
// the Submit caller, it is not kept.
func (w *Wizard[R]) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

// Next validates in against the current step, merges it and advances.
// On validation failure neither the index nor the merged data change.
func (w *Wizard[R]) Next(in Fields) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return ErrSubmitted
	}
	if w.index == len(w.steps)-1 {
		return ErrLastStep
	}
	if err := w.merge(in); err != nil {
		return err
	}
	w.index++
	w.input = w.data[w.steps[w.index].ID()].clone()
	return nil
}

// Previous steps back. Merged data is kept and not validated again.
func (w *Wizard[R]) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return ErrSubmitted
	}
	if w.index == 0 {
		return ErrFirstStep
	}
	w.index--
	w.input = w.data[w.steps[w.index].ID()].clone()
	return nil
}

// Submit validates and merges the last step, then performs the one network call with all
// the merged data. A failure keeps everything in place and emits an error notification so
// the user can retry. A second Submit while one is in flight gets core.ErrBusy.
func (w *Wizard[R]) Submit(ctx context.Context, in Fields) (R, error) {
	var zero R

	done, err := w.inflight.Begin(submitAction)
	if err != nil {
		return zero, err
	}
	defer done()

	w.mu.Lock()
	if w.submitted {
		w.mu.Unlock()
		return zero, ErrSubmitted
	}
	if w.index != len(w.steps)-1 {
		w.mu.Unlock()
		return zero, ErrNotLastStep
	}
	if err = w.merge(in); err != nil {
		w.mu.Unlock()
		return zero, err
	}
	payload := w.data.clone()
	w.mu.Unlock()

	result, err := w.submit(ctx, payload)
	if err != nil {
		if w.notifier != nil {
			w.notifier.Error(core.UserMessage(err, submitFailedText))
		}
		return zero, errors.Wrap(err, "submitting wizard")
	}

	w.mu.Lock()
	w.submitted = true
	w.mu.Unlock()
	return result, nil
}

// merge must be called with mu held.
func (w *Wizard[R]) merge(in Fields) error {
	step := w.steps[w.index]
	values, err := step.Validate(in)
	if err != nil {
		return err
	}
	w.data[step.ID()] = values
	w.input = values.clone()
	return nil
}
