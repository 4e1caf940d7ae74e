package chains

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedProfiles(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, ok := c.Profile("sepolia")
	if !ok {
		t.Fatalf("sepolia profile missing")
	}
	if p.ChainID == "" || p.RPCURL == "" {
		t.Fatalf("sepolia profile incomplete: %+v", p)
	}
	if _, ok := c.Profile("MAINNET"); !ok {
		t.Fatalf("profile lookup should be case-insensitive")
	}
}

func TestOverrideWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	data := "profiles:\n  sepolia:\n    chain_id: \"0x1\"\n    rpc_url: \"http://localhost:6060\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(path)
	if err != nil {
		t.Fatalf("New with override: %v", err)
	}
	p, _ := c.Profile("sepolia")
	if p.RPCURL != "http://localhost:6060" {
		t.Fatalf("override should win, got %q", p.RPCURL)
	}
	if _, ok := c.Profile("devnet"); !ok {
		t.Fatalf("non-overridden profiles should survive")
	}
}
