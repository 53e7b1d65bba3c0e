package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	EnableCORS bool   `yaml:"enable_cors"`

	// Releases maps a genome release ("grch37", "grch38") to its set of
	// databases.
	Releases map[string]ReleaseConfig `yaml:"releases"`

	// Genes is the gene-names database, shared across releases.
	Genes *Database `yaml:"genes"`
}

// ReleaseConfig lists the databases of one genome release.
type ReleaseConfig struct {
	// Annos maps a source identifier (e.g. "dbsnp") to its database; these
	// serve the per-variant fan-out.
	Annos map[string]Database `yaml:"annos"`
	// ClinvarSV is the ClinVar structural-variant database.
	ClinvarSV *Database `yaml:"clinvar_sv"`
	// GnomadSV is the gnomAD structural-variant database.
	GnomadSV *Database `yaml:"gnomad_sv"`
}

// Database points at one database directory and column family.
type Database struct {
	Path string `yaml:"path"`
	CF   string `yaml:"cf"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host: "localhost",
		Port: 8080,
	}
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
