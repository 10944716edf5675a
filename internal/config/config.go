package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Node struct {
		Name             string `yaml:"name"`
		Document         string `yaml:"document"`
		Look             int    `yaml:"look"`
		ApplyMaterials   bool   `yaml:"apply_materials"`
		ApplyAssignments bool   `yaml:"apply_assignments"`
		ApplyAttributes  bool   `yaml:"apply_attributes"`
	} `yaml:"node"`
	Shaders struct {
		Library string `yaml:"library"` // optional YAML file replacing the built-in table
	} `yaml:"shaders"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Scan struct {
		Parallelism int `yaml:"parallelism"`
	} `yaml:"scan"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Node.Name = "MtlXInput"
	cfg.Node.ApplyMaterials = true
	cfg.Node.ApplyAssignments = true
	cfg.Node.ApplyAttributes = true
	cfg.Storage.DBPath = "mtlxgraph.db"
	cfg.Log.Mode = "dev"
	cfg.Scan.Parallelism = 4
	return &cfg
}

// LoadConfig reads path on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if doc := os.Getenv("MTLXGRAPH_DOCUMENT"); doc != "" {
		cfg.Node.Document = doc
	}
	if look := os.Getenv("MTLXGRAPH_LOOK"); look != "" {
		if idx, err := strconv.Atoi(look); err == nil {
			cfg.Node.Look = idx
		}
	}
	if db := os.Getenv("MTLXGRAPH_DB"); db != "" {
		cfg.Storage.DBPath = db
	}
	if mode := os.Getenv("MTLXGRAPH_LOG_MODE"); mode != "" {
		cfg.Log.Mode = mode
	}
	if lib := os.Getenv("MTLXGRAPH_SHADER_LIBRARY"); lib != "" {
		cfg.Shaders.Library = lib
	}

	return cfg, nil
}
