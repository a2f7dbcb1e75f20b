package modules

import (
	"fmt"

	"github.com/kontex-neuro/xvcpkg/pkgs/mod/versions"
)

// Constraint is one version range imposed on a package and who imposed it.
type Constraint struct {
	Range      versions.Range
	RequiredBy string
}

func (c Constraint) String() string {
	return fmt.Sprintf("[%s] required by %s", c.Range, c.RequiredBy)
}

// ResolutionConflictError reports two requirements on the same package
// whose version ranges cannot both be satisfied.
type ResolutionConflictError struct {
	Name          string
	First, Second Constraint
}

func (e *ResolutionConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: %s, %s", e.Name, e.First, e.Second)
}
