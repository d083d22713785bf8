package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named batch sub-query loaded from a YAML file. Presets let
// operators keep recurring state/category queries out of client code.
type Preset struct {
	Name          string `yaml:"name"`
	State         string `yaml:"state"`
	EventCategory string `yaml:"event_category"`
	Operator      string `yaml:"operator"` // AND, OR, NOT; empty means AND
}

// PresetRepository loads batch-query presets from *.yaml files in a
// directory. Each file contains exactly one preset at the top level. Presets
// are loaded once at startup and cached in memory.
type PresetRepository struct {
	dir     string
	presets map[string]Preset
}

// NewPresetRepository creates a repository and eagerly loads all presets from
// dir. A missing directory is valid (zero presets configured); a malformed
// preset file is a startup error.
func NewPresetRepository(dir string) (*PresetRepository, error) {
	repo := &PresetRepository{
		dir:     dir,
		presets: make(map[string]Preset),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PresetRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("preset dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("preset path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading preset dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading preset file %s: %w", path, err)
		}

		var p Preset
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parsing preset file %s: %w", path, err)
		}
		if p.Name == "" {
			continue // skip empty / comment-only files
		}

		op := strings.ToUpper(strings.TrimSpace(p.Operator))
		if op == "" {
			op = "AND"
		}
		if op != "AND" && op != "OR" && op != "NOT" {
			return fmt.Errorf("preset %q: unsupported operator %q", p.Name, p.Operator)
		}
		p.Operator = op

		if _, exists := r.presets[p.Name]; exists {
			return fmt.Errorf("preset %q: duplicate preset name (check multiple YAML files)", p.Name)
		}
		r.presets[p.Name] = p
	}
	return nil
}

// Get returns the preset with the given name.
func (r *PresetRepository) Get(name string) (Preset, bool) {
	p, ok := r.presets[name]
	return p, ok
}

// Names returns all preset names, sorted.
func (r *PresetRepository) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
