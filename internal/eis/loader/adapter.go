package loader

import (
	"fmt"
	"sort"

	"github.com/banshee-data/impedance.report/internal/eis"
)

// Adapter parses one source file into tidy spectrum rows. Adapters are
// selected by name through configuration, not inheritance; adding a dataset
// family means adding one adapter here.
type Adapter interface {
	// Name is the configuration identifier for this adapter.
	Name() string
	// Extensions lists the file extensions (with dot, lower case) this
	// adapter accepts when scanning a data directory.
	Extensions() []string
	// Parse reads one file and returns its spectrum rows. The returned
	// error is a *eis.DataFormatError for layout problems.
	Parse(path string) ([]eis.SpectrumRecord, error)
}

var adapters = map[string]Adapter{}

func register(a Adapter) {
	if _, dup := adapters[a.Name()]; dup {
		panic(fmt.Sprintf("loader: duplicate adapter %q", a.Name()))
	}
	adapters[a.Name()] = a
}

// ByName returns the adapter registered under the given configuration name.
func ByName(name string) (Adapter, error) {
	a, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown loader adapter %q (have %v)", name, Names())
	}
	return a, nil
}

// Names returns the registered adapter names in sorted order.
func Names() []string {
	out := make([]string, 0, len(adapters))
	for name := range adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
