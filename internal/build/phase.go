package build

import "fmt"

// Phase is one ordered step of the build lifecycle.
type Phase int

const (
	PhaseRequirements Phase = iota
	PhaseLayout
	PhaseGenerate
	PhaseBuild
	PhasePackage
	PhaseExportInfo
	PhasePublish
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseRequirements, PhaseLayout, PhaseGenerate, PhaseBuild, PhasePackage, PhaseExportInfo, PhasePublish}

func (p Phase) String() string {
	switch p {
	case PhaseRequirements:
		return "Requirements"
	case PhaseLayout:
		return "Layout"
	case PhaseGenerate:
		return "Generate"
	case PhaseBuild:
		return "Build"
	case PhasePackage:
		return "Package"
	case PhaseExportInfo:
		return "ExportInfo"
	case PhasePublish:
		return "Publish"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PhaseError attaches the failing phase to an error.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// BuildToolError reports the external build tool exiting with a non-zero
// code. Output holds its captured stdout and stderr.
type BuildToolError struct {
	Phase    Phase
	Cmd      string
	ExitCode int
	Output   string
}

func (e *BuildToolError) Error() string {
	return fmt.Sprintf("build tool failed in %s phase with exit code %d: %s", e.Phase, e.ExitCode, e.Cmd)
}
