// Package types provides core value types shared by the build engine
package types

import (
	"fmt"
	"strings"
)

// BuildState represents the lifecycle state of a build context
type BuildState string

const (
	BuildStateNone      BuildState = "none"
	BuildStateStarted   BuildState = "started"
	BuildStateRunning   BuildState = "running"
	BuildStateFinished  BuildState = "finished"
	BuildStateError     BuildState = "error"
	BuildStateCancelled BuildState = "cancelled"
)

// BuildSystem identifies the host that drives a build
type BuildSystem string

const (
	BuildSystemConsole BuildSystem = "console"
	BuildSystemMSBuild BuildSystem = "msbuild"
	BuildSystemNAnt    BuildSystem = "nant"
)

// BuildType selects between development and release builds
type BuildType string

const (
	BuildTypeDevelopment BuildType = "development"
	BuildTypeRelease     BuildType = "release"
)

// BuildStage names the artifact a format is asked to produce steps for
type BuildStage string

const (
	BuildStageCloseViewer BuildStage = "close-viewer"
	BuildStageStartViewer BuildStage = "start-viewer"
	BuildStageAssembler   BuildStage = "assembler"
	BuildStageCompilation BuildStage = "compilation"
	BuildStageCustom      BuildStage = "custom"
)

// StepType classifies the work performed by a build step
type StepType string

const (
	StepTypeNone            StepType = "none"
	StepTypeProcess         StepType = "process"
	StepTypeDirectoryCreate StepType = "directory-create"
	StepTypeDirectoryCopy   StepType = "directory-copy"
	StepTypeDirectoryDelete StepType = "directory-delete"
	StepTypeFileCopy        StepType = "file-copy"
	StepTypeCloseViewer     StepType = "close-viewer"
	StepTypeStartViewer     StepType = "start-viewer"
	StepTypeAssembler       StepType = "assembler"
	StepTypeChmHelper       StepType = "chm-helper"
	StepTypeWebHelper       StepType = "web-helper"
	StepTypePackage         StepType = "package"
	StepTypeMulti           StepType = "multi"
	StepTypeCustom          StepType = "custom"
)

// LinkType controls how cross references are resolved in generated topics
type LinkType string

const (
	LinkTypeNone  LinkType = "none"
	LinkTypeLocal LinkType = "local"
	LinkTypeIndex LinkType = "index"
	LinkTypeID    LinkType = "id"
	LinkTypeMsdn  LinkType = "msdn"
)

// LinkTarget is the browsing target of external links
type LinkTarget string

const (
	LinkTargetNone   LinkTarget = "none"
	LinkTargetBlank  LinkTarget = "blank"
	LinkTargetSelf   LinkTarget = "self"
	LinkTargetParent LinkTarget = "parent"
	LinkTargetTop    LinkTarget = "top"
)

// FormatType identifies an output representation
type FormatType string

const (
	FormatTypeChm  FormatType = "chm"
	FormatTypeHxs  FormatType = "hxs"
	FormatTypeMhv  FormatType = "mhv"
	FormatTypeWeb  FormatType = "web"
	FormatTypeHtm  FormatType = "htm"
	FormatTypeAspx FormatType = "aspx"
)

// EngineType identifies the documentation a sub-build produces
type EngineType string

const (
	EngineTypeReference  EngineType = "reference"
	EngineTypeConceptual EngineType = "conceptual"
)

// GroupType identifies the content carried by a build group
type GroupType string

const (
	GroupTypeReference  GroupType = "reference"
	GroupTypeConceptual GroupType = "conceptual"
)

func (s BuildState) String() string  { return string(s) }
func (s BuildSystem) String() string { return string(s) }
func (t BuildType) String() string   { return string(t) }
func (s BuildStage) String() string  { return string(s) }
func (t StepType) String() string    { return string(t) }
func (t LinkType) String() string    { return string(t) }
func (t LinkTarget) String() string  { return string(t) }
func (t FormatType) String() string  { return string(t) }
func (t EngineType) String() string  { return string(t) }
func (t GroupType) String() string   { return string(t) }

// IsTerminal reports whether no further steps may run in this state
func (s BuildState) IsTerminal() bool {
	return s == BuildStateCancelled || s == BuildStateError
}

// HTMLTarget returns the anchor target attribute value for the link target
func (t LinkTarget) HTMLTarget() string {
	switch t {
	case LinkTargetBlank, LinkTargetSelf, LinkTargetParent, LinkTargetTop:
		return "_" + string(t)
	default:
		return ""
	}
}

// AllFormatTypes lists every supported output format in display order
func AllFormatTypes() []FormatType {
	return []FormatType{
		FormatTypeChm,
		FormatTypeHxs,
		FormatTypeMhv,
		FormatTypeWeb,
		FormatTypeHtm,
		FormatTypeAspx,
	}
}

func parseEnum[T ~string](kind, value string, valid ...T) (T, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range valid {
		if string(candidate) == v {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s: %q", kind, value)
}

// ParseBuildSystem parses a build system name
func ParseBuildSystem(s string) (BuildSystem, error) {
	return parseEnum("build system", s, BuildSystemConsole, BuildSystemMSBuild, BuildSystemNAnt)
}

// ParseBuildType parses a build type name
func ParseBuildType(s string) (BuildType, error) {
	return parseEnum("build type", s, BuildTypeDevelopment, BuildTypeRelease)
}

// ParseBuildStage parses a build stage name
func ParseBuildStage(s string) (BuildStage, error) {
	return parseEnum("build stage", s,
		BuildStageCloseViewer, BuildStageStartViewer, BuildStageAssembler,
		BuildStageCompilation, BuildStageCustom)
}

// ParseLinkType parses a link type name
func ParseLinkType(s string) (LinkType, error) {
	return parseEnum("link type", s, LinkTypeNone, LinkTypeLocal, LinkTypeIndex, LinkTypeID, LinkTypeMsdn)
}

// ParseLinkTarget parses a link target name
func ParseLinkTarget(s string) (LinkTarget, error) {
	return parseEnum("link target", s,
		LinkTargetNone, LinkTargetBlank, LinkTargetSelf, LinkTargetParent, LinkTargetTop)
}

// ParseFormatType parses an output format name
func ParseFormatType(s string) (FormatType, error) {
	return parseEnum("format type", s, AllFormatTypes()...)
}

// ParseGroupType parses a build group type
func ParseGroupType(s string) (GroupType, error) {
	return parseEnum("group type", s, GroupTypeReference, GroupTypeConceptual)
}
