package formula

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// AnyValue in OptionDef.Values accepts every value.
const AnyValue = "ANY"

// OptionDef declares one option of a package.
type OptionDef struct {
	Name    string
	Values  []string // allowed values; empty or containing AnyValue accepts anything
	Default string
}

// Allows reports whether value may be assigned to the option.
func (d OptionDef) Allows(value string) bool {
	if len(d.Values) == 0 || slices.Contains(d.Values, AnyValue) {
		return true
	}
	return slices.Contains(d.Values, FormatValue(value))
}

// BoolOption declares a True/False option.
func BoolOption(name string, def bool) OptionDef {
	return OptionDef{Name: name, Values: []string{"True", "False"}, Default: FormatValue(def)}
}

// FormatValue renders an option value in canonical form. Booleans, and
// strings spelling a boolean in any case, become "True" or "False".
func FormatValue(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		switch strings.ToLower(v) {
		case "true":
			return "True"
		case "false":
			return "False"
		}
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Options holds the resolved values of a recipe's own options.
type Options map[string]string

// Get returns the value of name.
func (o Options) Get(name string) (string, bool) {
	v, ok := o[name]
	return v, ok
}

// Bool reports whether name is set to True.
func (o Options) Bool(name string) bool {
	return o[name] == "True"
}

// Clone returns a copy of o.
func (o Options) Clone() Options {
	return maps.Clone(o)
}

// -----------------------------------------------------------------------------

// Override assigns Value to Option on every dependency whose reference
// ("name/version") matches Pattern.
type Override struct {
	Pattern string
	Option  string
	Value   string
}

// Rule disables one optional subsystem of the dependencies matching
// Pattern. It is applied as the override without_<Subsystem>=True.
type Rule struct {
	Pattern   string
	Subsystem string
}

// Option returns the option key the rule writes.
func (r Rule) Option() string {
	return "without_" + r.Subsystem
}

// Value returns the value the rule writes.
func (r Rule) Value() string {
	return "True"
}

// Config collects the dependency option directives of a recipe. Order is
// significant: overrides apply in call order, then rules in call order.
type Config struct {
	overrides []Override
	rules     []Rule
}

// Set records a targeted override.
func (c *Config) Set(pattern, option string, value any) {
	c.overrides = append(c.overrides, Override{Pattern: pattern, Option: option, Value: FormatValue(value)})
}

// Disable records one bulk rule per subsystem, keeping the given order.
func (c *Config) Disable(pattern string, subsystems ...string) {
	for _, s := range subsystems {
		c.rules = append(c.rules, Rule{Pattern: pattern, Subsystem: s})
	}
}

// Overrides returns the targeted overrides in declaration order.
func (c *Config) Overrides() []Override {
	return slices.Clone(c.overrides)
}

// Rules returns the bulk rules in declaration order.
func (c *Config) Rules() []Rule {
	return slices.Clone(c.rules)
}
