package registry

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed components/*.yaml
var embedded embed.FS

// file is the on-disk layout: one or more components per YAML file.
type file struct {
	Components []Component `yaml:"components"`
}

// Registry is the read-only set of component definitions.
type Registry struct {
	byID  map[string]*Component
	order []string
}

// Load reads every *.yaml file in dir, or the embedded definitions when
// dir is empty. Any malformed or duplicate definition fails the load.
func Load(dir string) (*Registry, error) {
	var fsys fs.FS = embedded
	root := "components"
	if dir != "" {
		fsys, root = os.DirFS(dir), "."
	}
	return LoadFS(fsys, root)
}

// LoadFS reads definitions from root within fsys.
func LoadFS(fsys fs.FS, root string) (*Registry, error) {
	names, err := fs.Glob(fsys, path.Join(root, "*.yaml"))
	if err != nil {
		return nil, eris.Wrap(err, "registry: glob definitions")
	}
	if len(names) == 0 {
		return nil, eris.Errorf("registry: no component definitions under %q", root)
	}
	sort.Strings(names)

	r := &Registry{byID: make(map[string]*Component)}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: read %s", name)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrapf(err, "registry: parse %s", name)
		}
		for i := range f.Components {
			c := f.Components[i]
			c.applyDefaults()
			if err := c.Validate(); err != nil {
				return nil, eris.Wrapf(err, "registry: %s", name)
			}
			if _, dup := r.byID[c.ID]; dup {
				return nil, eris.Errorf("registry: duplicate component_id %q in %s", c.ID, name)
			}
			r.byID[c.ID] = &c
			r.order = append(r.order, c.ID)
		}
	}

	if err := r.checkReferences(); err != nil {
		return nil, err
	}

	zap.L().Info("registry: components loaded",
		zap.Int("files", len(names)),
		zap.Int("components", len(r.order)),
	)
	return r, nil
}

// checkReferences ensures every formula only references known components.
func (r *Registry) checkReferences() error {
	for _, id := range r.order {
		comp := r.byID[id].Composition
		refs := append([]string(nil), comp.Components...)
		for _, alt := range comp.Alternatives {
			refs = append(refs, alt.Components...)
		}
		for _, ref := range refs {
			if _, ok := r.byID[ref]; !ok {
				return eris.Errorf("registry: %s: formula references unknown component %q", id, ref)
			}
		}
	}
	return nil
}

// Component returns a definition by id, or nil.
func (r *Registry) Component(id string) *Component {
	return r.byID[id]
}

// IDs returns every component id in load order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// All returns every definition in load order.
func (r *Registry) All() []*Component {
	out := make([]*Component, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int { return len(r.order) }

// Select returns the definitions for ids in registry order, skipping
// unknown ids. An empty ids selects everything.
func (r *Registry) Select(ids []string) []*Component {
	if len(ids) == 0 {
		return r.All()
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*Component
	for _, id := range r.order {
		if want[id] {
			out = append(out, r.byID[id])
		}
	}
	return out
}
