package types_test

import (
	"testing"

	"github.com/sandcastle-helpers/helpbuild/pkg/types"
)

func TestParseFormatType(t *testing.T) {
	tests := []struct {
		input   string
		want    types.FormatType
		wantErr bool
	}{
		{"chm", types.FormatTypeChm, false},
		{"HXS", types.FormatTypeHxs, false},
		{" mhv ", types.FormatTypeMhv, false},
		{"web", types.FormatTypeWeb, false},
		{"htm", types.FormatTypeHtm, false},
		{"aspx", types.FormatTypeAspx, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseFormatType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormatType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormatType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLinkType(t *testing.T) {
	for _, lt := range []types.LinkType{
		types.LinkTypeNone, types.LinkTypeLocal, types.LinkTypeIndex, types.LinkTypeID, types.LinkTypeMsdn,
	} {
		got, err := types.ParseLinkType(string(lt))
		if err != nil {
			t.Fatalf("ParseLinkType(%q) failed: %v", lt, err)
		}
		if got != lt {
			t.Errorf("ParseLinkType(%q) = %q", lt, got)
		}
	}

	if _, err := types.ParseLinkType("anchor"); err == nil {
		t.Error("expected error for unknown link type")
	}
}

func TestParseBuildSystemAndType(t *testing.T) {
	if s, err := types.ParseBuildSystem("MSBuild"); err != nil || s != types.BuildSystemMSBuild {
		t.Errorf("ParseBuildSystem(MSBuild) = %q, %v", s, err)
	}
	if _, err := types.ParseBuildSystem("make"); err == nil {
		t.Error("expected error for unknown build system")
	}
	if bt, err := types.ParseBuildType("release"); err != nil || bt != types.BuildTypeRelease {
		t.Errorf("ParseBuildType(release) = %q, %v", bt, err)
	}
}

func TestBuildState_IsTerminal(t *testing.T) {
	tests := []struct {
		state types.BuildState
		want  bool
	}{
		{types.BuildStateNone, false},
		{types.BuildStateStarted, false},
		{types.BuildStateRunning, false},
		{types.BuildStateFinished, false},
		{types.BuildStateError, true},
		{types.BuildStateCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestLinkTarget_HTMLTarget(t *testing.T) {
	if got := types.LinkTargetBlank.HTMLTarget(); got != "_blank" {
		t.Errorf("expected _blank, got %q", got)
	}
	if got := types.LinkTargetNone.HTMLTarget(); got != "" {
		t.Errorf("expected empty target, got %q", got)
	}
}

func TestAllFormatTypes(t *testing.T) {
	all := types.AllFormatTypes()
	if len(all) != 6 {
		t.Fatalf("expected 6 formats, got %d", len(all))
	}
	seen := make(map[types.FormatType]bool)
	for _, f := range all {
		if seen[f] {
			t.Errorf("duplicate format %s", f)
		}
		seen[f] = true
	}
}
