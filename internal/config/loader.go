package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "treegrid.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "treegrid.yml"

// LoadFromDir loads a ProjectConfig from the given directory.
// It looks for treegrid.yaml or treegrid.yml in the directory.
// Returns nil, nil if no config file is found (not an error condition).
// Relative seed, policy and SQLite paths are resolved against dir.
func LoadFromDir(dir string) (*ProjectConfig, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	ResolvePaths(&cfg, dir)
	return &cfg, nil
}

// ResolvePaths makes relative file paths absolute against baseDir.
func ResolvePaths(cfg *ProjectConfig, baseDir string) {
	cfg.Seed.Path = resolvePathRelativeTo(cfg.Seed.Path, baseDir)
	cfg.Policy.Script = resolvePathRelativeTo(cfg.Policy.Script, baseDir)
	if cfg.Store != nil && cfg.Store.Type == "sqlite" && cfg.Store.Path != ":memory:" {
		cfg.Store.Path = resolvePathRelativeTo(cfg.Store.Path, baseDir)
	}
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func FindConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing treegrid.yaml or treegrid.yml. maxLevels <= 0 means no limit.
// Returns empty string if not found.
func FindProjectRoot(startDir string, maxLevels int) string {
	dir := startDir
	for i := 0; maxLevels <= 0 || i < maxLevels; i++ {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}
