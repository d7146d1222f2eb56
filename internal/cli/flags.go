package cli

import (
	"github.com/alexanderramin/reqtrack/internal/domain"
	"github.com/spf13/pflag"
)

// statusFilter is a repeatable --status flag that parses status names
// case-insensitively.
type statusFilter []domain.RequirementStatus

var _ pflag.Value = (*statusFilter)(nil)

func (f *statusFilter) String() string {
	out := ""
	for i, s := range *f {
		if i > 0 {
			out += ","
		}
		out += string(s)
	}
	return out
}

func (f *statusFilter) Set(v string) error {
	s, err := domain.ParseRequirementStatus(v)
	if err != nil {
		return err
	}
	*f = append(*f, s)
	return nil
}

func (f *statusFilter) Type() string { return "status" }

func (f statusFilter) matches(s domain.RequirementStatus) bool {
	if len(f) == 0 {
		return true
	}
	for _, want := range f {
		if want == s {
			return true
		}
	}
	return false
}

// changedInt returns a pointer to v when the named flag was set explicitly.
func changedInt(flags *pflag.FlagSet, name string, v int) *int {
	if !flags.Changed(name) {
		return nil
	}
	return &v
}
