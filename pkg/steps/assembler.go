package steps

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/sandcastle-helpers/helpbuild/pkg/build"
	"github.com/sandcastle-helpers/helpbuild/pkg/types"
	"github.com/sandcastle-helpers/helpbuild/pkg/utils"
)

// AssemblerConfigName is the BuildAssembler configuration written per group
const AssemblerConfigName = "sandcastle.config"

// Assembler writes the BuildAssembler configuration of a group. The
// components that load topic data depend on the group type; each enabled
// format then contributes its link-resolution and save components.
type Assembler struct {
	Group      *build.Group
	ConfigFile string
	// Formats overrides the engine's enabled formats
	Formats []build.Format
}

// NewAssemblerStep creates a step writing the configuration of group
func NewAssemblerStep(group *build.Group) *build.Step {
	step := build.NewStep("Assembler configuration", &Assembler{Group: group})
	step.Description = "Write " + AssemblerConfigName + " for " + group.Name()
	return step
}

func (a *Assembler) Type() types.StepType { return types.StepTypeAssembler }

func (a *Assembler) Run(sc *build.StepContext) error {
	if a.Group == nil {
		return &build.BuildError{Op: "write assembler", Step: sc.Step.Name, Err: build.ErrInvalidArgument}
	}
	formats := a.Formats
	if formats == nil && sc.Engine != nil {
		formats = sc.Engine.EnabledFormats()
	}
	if len(formats) == 0 {
		return fmt.Errorf("group %s: no enabled output format", a.Group.Name())
	}

	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	buf.WriteString("<configuration>\n  <dduetools>\n    <builder>\n      <components>\n")
	writeDataComponents(&buf, a.Group)
	for _, f := range formats {
		if !f.Enabled() {
			continue
		}
		fmt.Fprintf(&buf, "        <!-- %s -->\n", f.Name())
		if err := f.WriteAssembler(sc.Build, a.Group, &buf); err != nil {
			return fmt.Errorf("format %s: %w", f.Name(), err)
		}
	}
	buf.WriteString("      </components>\n    </builder>\n  </dduetools>\n</configuration>\n")

	name := a.ConfigFile
	if name == "" {
		name = AssemblerConfigName
	}
	path := sc.Resolve(name)
	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	sc.Logger.Info(fmt.Sprintf("Wrote %s for %d formats", filepath.Base(path), len(formats)))
	return nil
}

func writeDataComponents(buf *bytes.Buffer, group *build.Group) {
	buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.CopyFromFileComponent\">\n")
	if group.Type == types.GroupTypeConceptual {
		buf.WriteString("          <data base=\"Topics\" files=\"*.xml\" />\n")
		buf.WriteString("          <copy source=\"/topic\" target=\"/document/topic\" />\n")
		buf.WriteString("        </component>\n")
		buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.CopyFromIndexComponent\">\n")
		buf.WriteString("          <index name=\"metadata\" value=\"/metadata/topic\" key=\"@id\">\n")
		buf.WriteString("            <data files=\"XmlComp/*.cmp.xml\" />\n")
		buf.WriteString("          </index>\n")
		buf.WriteString("          <copy name=\"metadata\" source=\"*\" target=\"/document/metadata\" />\n")
		buf.WriteString("        </component>\n")
		return
	}
	buf.WriteString("          <data file=\"reflection.xml\" />\n")
	buf.WriteString("          <copy source=\"/*\" target=\"/document/reference\" />\n")
	buf.WriteString("        </component>\n")
	buf.WriteString("        <component type=\"Microsoft.Ddue.Tools.CopyFromIndexComponent\">\n")
	buf.WriteString("          <index name=\"comments\" value=\"/doc/members/member\" key=\"@name\">\n")
	buf.WriteString("            <data files=\"comments/*.xml\" />\n")
	buf.WriteString("          </index>\n")
	buf.WriteString("          <copy name=\"comments\" source=\"*\" target=\"/document/comments\" />\n")
	buf.WriteString("        </component>\n")
}
