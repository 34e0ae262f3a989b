package brands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes how a brand's products are presented on the storefront.
type Profile struct {
	Name     string   `yaml:"name" json:"name"`
	Vendor   string   `yaml:"vendor" json:"vendor"`
	Voice    string   `yaml:"voice" json:"voice"`
	Audience string   `yaml:"audience" json:"audience"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Tags     []string `yaml:"tags" json:"tags"`
}

// Generic is the voice used when a brand has no profile.
var Generic = Profile{
	Name:  "generic",
	Voice: "Clear, friendly and concise. Focus on fit, fabric and how the piece is worn.",
}

type file struct {
	Brands []Profile `yaml:"brands"`
}

// Registry holds brand profiles keyed by lower-cased name.
type Registry struct {
	profiles map[string]Profile
}

// Load reads a YAML profile file. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read brand profiles: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML of the form {brands: [{name, vendor, voice, ...}]}.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse brand profiles: %w", err)
	}
	for i, p := range f.Brands {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("brand profile %d has no name", i)
		}
	}
	return NewRegistry(f.Brands), nil
}

func NewRegistry(profiles []Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range profiles {
		r.profiles[key(p.Name)] = p
	}
	return r
}

// Lookup returns the profile for brand, or Generic with the brand as vendor
// when none is configured. The bool reports whether a profile was found.
func (r *Registry) Lookup(brand string) (Profile, bool) {
	if p, ok := r.profiles[key(brand)]; ok {
		if p.Vendor == "" {
			p.Vendor = p.Name
		}
		return p, true
	}
	g := Generic
	g.Vendor = strings.TrimSpace(brand)
	return g, false
}

// Names returns the configured brand names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
