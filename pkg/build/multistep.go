package build

import (
	"errors"
	"fmt"

	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Sequence is the action of a multi-step: it runs its children in order
type Sequence struct {
	owner *Step
	steps []*Step
}

// NewMultiStep creates an enabled step that runs children in order
func NewMultiStep(name string, children ...*Step) *Step {
	step := NewStep(name, nil)
	seq := &Sequence{owner: step}
	step.Action = seq
	for _, child := range children {
		seq.Add(child)
	}
	return step
}

// SequenceOf returns the sequence of a multi-step, or nil for other steps
func SequenceOf(step *Step) *Sequence {
	if step == nil {
		return nil
	}
	seq, _ := step.Action.(*Sequence)
	return seq
}

// Add appends child; nil children are ignored
func (q *Sequence) Add(child *Step) {
	if child == nil {
		return
	}
	child.parent = q.owner
	q.steps = append(q.steps, child)
}

// Steps returns the children in order
func (q *Sequence) Steps() []*Step {
	out := make([]*Step, len(q.steps))
	copy(out, q.steps)
	return out
}

// Len returns the number of children
func (q *Sequence) Len() int {
	return len(q.steps)
}

func (q *Sequence) Type() types.StepType {
	return types.StepTypeMulti
}

// Initialize binds every child in order. The first child that fails to
// initialize and does not continue on error stops the remaining children.
func (q *Sequence) Initialize(ctx *Context) error {
	for i, child := range q.steps {
		if err := child.Initialize(ctx); err != nil {
			if child.ContinueOnError && !IsConfigurationError(err) {
				ctx.Logger().Warn(fmt.Sprintf("Ignoring initialization failure of step %d (%s): %v", i+1, child.Name, err))
				continue
			}
			return err
		}
	}
	return nil
}

// Uninitialize releases every child, even after a failure
func (q *Sequence) Uninitialize(ctx *Context) error {
	var errs []error
	for _, child := range q.steps {
		if err := child.Uninitialize(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run executes the enabled children in order and stops at the first hard
// failure. Errors and panics are logged and reported as a failed step.
func (q *Sequence) Run(sc *StepContext) (err error) {
	ctx := sc.Build
	log := sc.Logger

	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Sprintf("%s: panic: %v", q.owner.Name, r))
			err = ErrStepFailed
		}
	}()

	for i, child := range q.steps {
		if !child.Enabled {
			continue
		}
		if !ctx.StepStarts(child) {
			log.Warn(fmt.Sprintf("Step %d (%s) skipped: build is %s", i+1, child.Name, ctx.State()))
			return ErrStepFailed
		}

		ok, execErr := child.Execute()
		if execErr != nil {
			log.Error(fmt.Sprintf("Step %d (%s): %v", i+1, child.Name, execErr))
			return ErrStepFailed
		}
		if !ok && !child.ContinueOnError {
			log.Error(fmt.Sprintf("Step %d (%s) failed", i+1, child.Name))
			return ErrStepFailed
		}
		ctx.StepEnds(child)
	}
	return nil
}
