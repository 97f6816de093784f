package steps

import (
	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// Func adapts a function to a custom action
type Func func(sc *build.StepContext) error

func (f Func) Type() types.StepType { return types.StepTypeCustom }

func (f Func) Run(sc *build.StepContext) error { return f(sc) }
