// Package chains carries the known network profiles (chain id plus default
// RPC endpoints), loaded from an embedded catalog with an optional override
// file for private deployments.
package chains

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed chains.yaml
var defaultFiles embed.FS

type Profile struct {
	ChainID string `yaml:"chain_id"`
	RPCURL  string `yaml:"rpc_url"`
	WSURL   string `yaml:"ws_url"`
}

type Catalog struct {
	profiles map[string]Profile
}

type catalogFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// New loads the embedded profiles, then applies overridePath on top if set.
// Override entries replace embedded ones with the same name wholesale.
func New(overridePath string) (*Catalog, error) {
	c := &Catalog{profiles: make(map[string]Profile)}

	raw, err := fs.ReadFile(defaultFiles, "chains.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded chains: %w", err)
	}
	if err := c.apply(raw); err != nil {
		return nil, err
	}

	if strings.TrimSpace(overridePath) != "" {
		raw, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read chains override: %w", err)
		}
		if err := c.apply(raw); err != nil {
			return nil, fmt.Errorf("chains override %s: %w", overridePath, err)
		}
	}
	return c, nil
}

func (c *Catalog) apply(raw []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse chains yaml: %w", err)
	}
	for name, p := range f.Profiles {
		c.profiles[strings.ToLower(strings.TrimSpace(name))] = p
	}
	return nil
}

// Profile returns the named profile, case-insensitively.
func (c *Catalog) Profile(name string) (Profile, bool) {
	p, ok := c.profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the known profile names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
