package engines

import (
	"fmt"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/steps"
)

// ConceptualPlanner plans conceptual topic builds: topic collection, the
// manifest and the table of contents
type ConceptualPlanner struct{}

var _ build.Planner = ConceptualPlanner{}

// Plan returns one multi-step per enabled conceptual group followed by the
// viewer steps
func (ConceptualPlanner) Plan(e *build.Engine) ([]*build.Step, error) {
	return plan(e, func(g *build.Group) ([]*build.Step, error) {
		if g.Source == "" {
			return nil, fmt.Errorf("%w: no topic source", build.ErrInvalidArgument)
		}
		return []*build.Step{steps.NewConceptualManifestStep(g)}, nil
	})
}
