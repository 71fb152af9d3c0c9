package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// envFiles are loaded, in order, before the configuration is expanded.
// Variables already present in the process environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every existing env file next to the configuration.
func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		slog.Debug("Loaded environment file", "path", path)
	}
	return nil
}

// Load reads the configuration at path over the defaults.
// A missing file is not an error when path is the default name: the stock layout is used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	dir := filepath.Dir(path)
	if err := loadEnvFiles(dir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load environment files").Build()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
				WithContext("path", path).Build()
		}
	case os.IsNotExist(err) && filepath.Base(path) == DefaultPath:
		slog.Debug("No configuration file, using defaults", "path", path)
	case os.IsNotExist(err):
		return nil, errors.NotFoundError("configuration file not found: " + path).Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			WithContext("path", path).Build()
	}

	if !filepath.IsAbs(cfg.Structure.Root) {
		cfg.Structure.Root = filepath.Join(dir, cfg.Structure.Root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults without touching the filesystem.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes the default configuration to path and creates the source folders next to it.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}

	cfg := Default()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal configuration").Build()
	}
	header := "# pagesmith configuration\n# Values of the form ${VAR} are expanded from the environment (.env and .env.local are loaded first).\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write configuration").Build()
	}

	root := filepath.Dir(path)
	s := cfg.Structure
	for _, dir := range []string{
		s.Pages,
		filepath.Join(s.Assets, s.CSS, s.SCSS),
		filepath.Join(s.Assets, s.JS),
		filepath.Join(s.Assets, s.Img),
		s.Misc,
		s.Posts,
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create source folder").
				WithContext("path", dir).Build()
		}
	}
	return nil
}
