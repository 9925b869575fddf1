package scenario

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/airchains-network/state-conformance/alloc"
	"github.com/airchains-network/state-conformance/statetest"
	"github.com/airchains-network/state-conformance/verify"
	"github.com/sirupsen/logrus"
)

// Env is what a scenario runs against.
type Env struct {
	Alloc  *alloc.Alloc
	Runner *statetest.Runner
	// Reader is used for reads a scenario needs beyond verification, such as
	// the code of a delegate.
	Reader verify.StateReader
	// ResolveDelegatedCode expects a delegated account to report its
	// delegate's code rather than the delegation designator.
	ResolveDelegatedCode bool
	Log                  *logrus.Logger
}

// Scenario is one built-in conformance check.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	registry[s.Name] = s
}

// All returns every scenario ordered by name.
func All() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select returns the named scenarios in the given order. No names selects
// all of them.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}
