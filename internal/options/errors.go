package options

import (
	"fmt"
	"strings"
)

// UnknownOptionError reports an assignment to an option the package does
// not declare.
type UnknownOptionError struct {
	Package string
	Option  string
	Pattern string
}

func (e *UnknownOptionError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("package %s has no option %q (set through %q)", e.Package, e.Option, e.Pattern)
	}
	return fmt.Sprintf("package %s has no option %q", e.Package, e.Option)
}

// InvalidOptionValueError reports a value outside an option's allowed set.
type InvalidOptionValueError struct {
	Package string
	Option  string
	Value   string
	Allowed []string
}

func (e *InvalidOptionValueError) Error() string {
	return fmt.Sprintf("invalid value %q for option %s:%s, possible values are [%s]",
		e.Value, e.Package, e.Option, strings.Join(e.Allowed, ", "))
}
