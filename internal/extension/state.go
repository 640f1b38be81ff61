package extension

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/agentx-labs/extswitch/internal/platform"
	"go.yaml.in/yaml/v3"
)

// StateFile is the name of the enabled-state file under the extensions root.
const StateFile = "state.yaml"

// State is the persisted enabled state of a DirHost. Extensions are
// enabled unless listed.
type State struct {
	Disabled []string `yaml:"disabled"`
}

// LoadState reads a state file. A missing file is an empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state %s: %w", path, err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state %s: %w", path, err)
	}
	return &st, nil
}

// SaveState writes the state file atomically with a sorted disabled list.
func SaveState(path string, st *State) error {
	out := State{Disabled: slices.Clone(st.Disabled)}
	sort.Strings(out.Disabled)
	if out.Disabled == nil {
		out.Disabled = []string{}
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := platform.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing state %s: %w", path, err)
	}
	return nil
}

// IsEnabled reports whether id is not in the disabled list.
func (s *State) IsEnabled(id string) bool {
	return !slices.Contains(s.Disabled, id)
}

// SetEnabled updates the disabled list and reports whether it changed.
func (s *State) SetEnabled(id string, enabled bool) bool {
	idx := slices.Index(s.Disabled, id)
	switch {
	case enabled && idx >= 0:
		s.Disabled = slices.Delete(s.Disabled, idx, idx+1)
		return true
	case !enabled && idx < 0:
		s.Disabled = append(s.Disabled, id)
		return true
	}
	return false
}
