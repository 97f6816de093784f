package engines

import (
	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/formats"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// NewProject creates a project whose reference and conceptual engines build
// the formats listed in settings
func NewProject(settings *config.Settings, cfg *config.BuildConfiguration, opts ...build.ProjectOption) (*build.Project, error) {
	if cfg == nil {
		cfg = config.NewBuildConfiguration(settings)
	}
	list, err := formats.FromSettings(settings)
	if err != nil {
		return nil, err
	}

	reference := build.NewEngine(types.EngineTypeReference, ReferencePlanner{},
		build.WithFormats(list...), build.WithConfiguration(cfg))
	conceptual := build.NewEngine(types.EngineTypeConceptual, ConceptualPlanner{},
		build.WithFormats(list...), build.WithConfiguration(cfg))
	return build.NewProject(settings, cfg, reference, conceptual, opts...), nil
}
