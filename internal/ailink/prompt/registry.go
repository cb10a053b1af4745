package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed prompts/*.md
var builtinFS embed.FS

// Registry provides access to prompt definitions.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// InMemoryRegistry stores prompts by slug.
type InMemoryRegistry struct {
	prompts map[string]*Prompt
}

// NewRegistry indexes layers of prompts by slug. A slug may appear once per
// layer; a later layer replaces an earlier one's prompt.
func NewRegistry(layers ...[]*Prompt) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{prompts: make(map[string]*Prompt)}
	for _, layer := range layers {
		seen := make(map[string]string, len(layer))
		for _, p := range layer {
			if p == nil {
				continue
			}
			slug := strings.TrimSpace(p.Config.Slug)
			if slug == "" {
				return nil, fmt.Errorf("prompt %s missing slug", p.Source)
			}
			if first, dup := seen[slug]; dup {
				return nil, fmt.Errorf("prompt slug %q defined by both %s and %s", slug, first, p.Source)
			}
			seen[slug] = p.Source
			reg.prompts[slug] = p
		}
	}
	return reg, nil
}

// Open returns the built-in prompts overlaid with any *.md files in dir.
// An empty dir means built-ins only.
func Open(dir string) (*InMemoryRegistry, error) {
	builtin, err := Builtin()
	if err != nil {
		return nil, err
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return NewRegistry(builtin)
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("prompts dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("prompts dir %s is not a directory", dir)
	}
	overrides, err := LoadFS(os.DirFS(dir), dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(builtin, overrides)
}

// DefaultRegistry holds the built-in prompts only.
func DefaultRegistry() (*InMemoryRegistry, error) {
	return Open("")
}

// Builtin loads the prompts compiled into the binary.
func Builtin() ([]*Prompt, error) {
	sub, err := fs.Sub(builtinFS, "prompts")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, "builtin")
}

// LoadFS parses every top-level *.md in fsys. label prefixes each prompt's Source.
func LoadFS(fsys fs.FS, label string) ([]*Prompt, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, fmt.Errorf("scan prompts in %s: %w", label, err)
	}
	sort.Strings(names)

	prompts := make([]*Prompt, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", name, err)
		}
		p, err := Load(path.Join(label, name), data)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// Get returns the prompt for slug.
func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	p, ok := r.prompts[slug]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", slug)
	}
	return p, nil
}

// List returns prompts sorted by slug.
func (r *InMemoryRegistry) List() []*Prompt {
	if r == nil {
		return nil
	}
	out := make([]*Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config.Slug < out[j].Config.Slug })
	return out
}
