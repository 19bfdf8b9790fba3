// Package config resolves cardex settings from, in increasing
// precedence: built-in defaults, the YAML config file, CARDEX_*
// environment variables, and CLI flags. Each resolved value remembers
// where it came from so `cardex stats` style surfaces can explain the
// effective configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueSource identifies where a resolved value came from.
type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath  string
	CLIInput    string
	CLILanguage string
	CLITag      string
	CLICatalog  string
}

// ResolvedConfig is the effective configuration for a run.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DataRoot  ResolvedValue `json:"data_root"`
	CatalogDB ResolvedValue `json:"catalog_db"`
	Language  ResolvedValue `json:"language"`
	Tag       ResolvedValue `json:"tag"`

	// KeywordsEN/KeywordsZH replace the built-in keyword sets when
	// non-empty, keeping matcher construction a pure function of
	// loaded configuration.
	KeywordsEN []string `json:"keywords_en,omitempty"`
	KeywordsZH []string `json:"keywords_zh,omitempty"`
}

type fileConfig struct {
	DataRoot  string `yaml:"data_root"`
	CatalogDB string `yaml:"catalog_db"`
	Language  string `yaml:"language"`
	Tag       string `yaml:"tag"`
	Keywords  struct {
		EN []string `yaml:"en"`
		ZH []string `yaml:"zh"`
	} `yaml:"keywords"`
}

// Defaults.
const (
	DefaultDataRoot = "data/raw"
	DefaultLanguage = "both"
	DefaultTag      = "Cardio-MedQA"
)

// DefaultConfigPath is ~/.cardex/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cardex", "config.yaml")
}

// DefaultCatalogPath is ~/.cardex/catalog.db.
func DefaultCatalogPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cardex", "catalog.db")
}

// Resolve builds the effective configuration. A missing config file is
// not an error; a malformed one is.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		DataRoot:   ResolvedValue{Value: DefaultDataRoot, Source: SourceDefault},
		CatalogDB:  ResolvedValue{Value: DefaultCatalogPath(), Source: SourceDefault},
		Language:   ResolvedValue{Value: DefaultLanguage, Source: SourceDefault},
		Tag:        ResolvedValue{Value: DefaultTag, Source: SourceDefault},
	}

	cfg, err := loadFile(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DataRoot, cfg.DataRoot, SourceConfig, path)
		apply(&out.CatalogDB, cfg.CatalogDB, SourceConfig, path)
		apply(&out.Language, cfg.Language, SourceConfig, path)
		apply(&out.Tag, cfg.Tag, SourceConfig, path)
		out.KeywordsEN = cleanList(cfg.Keywords.EN)
		out.KeywordsZH = cleanList(cfg.Keywords.ZH)
	}

	applyEnv(&out.DataRoot, "CARDEX_DATA_ROOT")
	applyEnv(&out.CatalogDB, "CARDEX_CATALOG_DB")
	applyEnv(&out.Language, "CARDEX_LANGUAGE")
	applyEnv(&out.Tag, "CARDEX_TAG")

	apply(&out.DataRoot, opts.CLIInput, SourceCLI, "--input")
	apply(&out.Language, opts.CLILanguage, SourceCLI, "--language")
	apply(&out.Tag, opts.CLITag, SourceCLI, "--tag")
	apply(&out.CatalogDB, opts.CLICatalog, SourceCLI, "--catalog")

	out.DataRoot.Value = expandUserPath(out.DataRoot.Value)
	out.CatalogDB.Value = expandUserPath(out.CatalogDB.Value)

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
