package solver

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crillab/incsat/ipasir"
)

// Options tune the solver. They can be given as an option string, see ParseOptions.
type Options struct {
	Restart     string  `mapstructure:"restart"`      // "lbd" (glucose-style), "luby" or "none"
	LubyUnit    int     `mapstructure:"luby-unit"`    // Conflicts per Luby unit
	VarDecay    float64 `mapstructure:"var-decay"`    // Final variable activity decay
	ClauseDecay float64 `mapstructure:"clause-decay"` // Clause activity decay
	FirstReduce int     `mapstructure:"first-reduce"` // Conflicts before the first learned clause reduction
	Phase       string  `mapstructure:"phase"`        // "saved", "true" or "false"
	Verbose     bool    `mapstructure:"verbose"`      // Log statistics during search

	Logger logrus.FieldLogger `mapstructure:"-"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Restart:     "lbd",
		LubyUnit:    100,
		VarDecay:    0.95,
		ClauseDecay: 0.999,
		FirstReduce: 2000,
		Phase:       "saved",
	}
}

// ParseOptions parses an option string such as "restart=luby,luby-unit=50,verbose".
// Missing options keep their default value.
func ParseOptions(str string) (Options, error) {
	opts := DefaultOptions()
	if err := ipasir.DecodeOptions(str, &opts); err != nil {
		return opts, err
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	switch o.Restart {
	case "lbd", "luby", "none":
	default:
		return errors.Errorf("invalid restart policy %q", o.Restart)
	}
	switch o.Phase {
	case "saved", "true", "false":
	default:
		return errors.Errorf("invalid phase %q", o.Phase)
	}
	if o.LubyUnit < 1 {
		return errors.Errorf("invalid luby unit %d", o.LubyUnit)
	}
	if o.VarDecay <= 0 || o.VarDecay >= 1 {
		return errors.Errorf("var decay %v not in ]0, 1[", o.VarDecay)
	}
	if o.ClauseDecay <= 0 || o.ClauseDecay >= 1 {
		return errors.Errorf("clause decay %v not in ]0, 1[", o.ClauseDecay)
	}
	if o.FirstReduce < 1 {
		return errors.Errorf("invalid first reduce %d", o.FirstReduce)
	}
	return nil
}

func (o Options) restartPolicy() restartPolicy {
	switch o.Restart {
	case "luby":
		return &lubyRestarts{unit: o.LubyUnit}
	case "none":
		return noRestarts{}
	default:
		return lbdRestarts{}
	}
}
