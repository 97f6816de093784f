package build

import (
	"io"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

// FormatOptions is the policy shared by all output formats
type FormatOptions struct {
	Name               string
	Enabled            bool
	FormatFolder       string
	OutputFolder       string
	LinkType           types.LinkType
	ExternalLinkType   types.LinkType
	ExternalLinkTarget types.LinkTarget
	Indent             bool
	OmitXMLDeclaration bool
	Properties         map[string]string
}

// Clone returns a copy that shares no mutable state
func (o *FormatOptions) Clone() *FormatOptions {
	c := *o
	c.Properties = make(map[string]string, len(o.Properties))
	for k, v := range o.Properties {
		c.Properties[k] = v
	}
	return &c
}

// Property returns a property bag value
func (o *FormatOptions) Property(key string) string {
	return o.Properties[key]
}

// Format is one output representation of the documentation. It produces the
// steps of a build stage and the link-resolution fragments of the assembler
// configuration.
type Format interface {
	Type() types.FormatType
	Name() string
	Enabled() bool
	Options() *FormatOptions
	// Reset restores the format defaults
	Reset()
	Clone() Format
	// CreateStep returns the step for stage, or nil when the format has
	// nothing to do in that stage
	CreateStep(ctx *Context, stage types.BuildStage, workingDir string) *Step
	WriteAssembler(ctx *Context, group *Group, w io.Writer) error
	OutputPath(settings *config.Settings) string
	SetLinkType(t types.LinkType)
	SetExternalLinkType(t types.LinkType)
}

// Planner turns the groups and formats of an engine into its step list
type Planner interface {
	Plan(e *Engine) ([]*Step, error)
}

// PlannerFunc adapts a function to Planner
type PlannerFunc func(e *Engine) ([]*Step, error)

// Plan calls f(e)
func (f PlannerFunc) Plan(e *Engine) ([]*Step, error) {
	return f(e)
}
