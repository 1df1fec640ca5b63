package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ahead-health/dq-cli/internal/model"
)

// LoadDerivedDefinitions reads derived indicator definitions from a YAML
// file. An empty path returns nil so callers fall back to the built-in set.
func LoadDerivedDefinitions(path string) ([]model.DerivedDefinition, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read derived definitions %s", path)
	}

	// The YAML has a top-level "derived" key
	var wrapper struct {
		Derived []model.DerivedDefinition `yaml:"derived"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "registry: parse derived definitions")
	}

	seen := make(map[string]bool, len(wrapper.Derived))
	for _, d := range wrapper.Derived {
		if d.Code == "" || d.NumeratorID == "" || d.DenominatorID == "" {
			return nil, eris.Errorf("registry: incomplete derived definition %q", d.Code)
		}
		if seen[d.Code] {
			return nil, eris.Errorf("registry: duplicate derived code %q", d.Code)
		}
		seen[d.Code] = true
	}

	return wrapper.Derived, nil
}
