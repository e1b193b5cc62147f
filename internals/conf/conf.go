package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"
)

type Config struct {
	Version string        `json:"-"`
	Data    DataConfig    `json:"data"`
	Agent   AgentConfig   `json:"agent"`
	Outputs OutputsConfig `json:"outputs"`
}

type DataConfig struct {
	Dir string `json:"dir" zog:"dir"`
}

type AgentConfig struct {
	DefaultModel   string  `json:"default_model" zog:"default_model"`
	SynthesisModel string  `json:"synthesis_model" zog:"synthesis_model"`
	MaxWorkers     int     `json:"max_workers" zog:"max_workers"`
	Temperature    float64 `json:"temperature" zog:"temperature"`
}

type OutputsConfig struct {
	Plan      string `json:"plan" zog:"plan"`
	RawDir    string `json:"raw_dir" zog:"raw_dir"`
	SynthDir  string `json:"synth_dir" zog:"synth_dir"`
	CiteDir   string `json:"cite_dir" zog:"cite_dir"`
	Templates string `json:"templates" zog:"templates"`
}

var dataSchema = z.Struct(z.Shape{
	"Dir": z.String().Default("~/.scout").Transform(expandPathTransform),
})

var agentSchema = z.Struct(z.Shape{
	"DefaultModel":   z.String().Default("gpt-4o-mini"),
	"SynthesisModel": z.String().Default("gpt-4o"),
	"MaxWorkers":     z.Int().Default(6).GTE(1),
	"Temperature":    z.Float64().Default(0.2),
})

var outputsSchema = z.Struct(z.Shape{
	"Plan":      z.String().Default("outputs/plan.json"),
	"RawDir":    z.String().Default("outputs/raw"),
	"SynthDir":  z.String().Default("outputs/synthesis"),
	"CiteDir":   z.String().Default("outputs/citations"),
	"Templates": z.String().Default("prompts"),
})

var ConfigSchema = z.Struct(z.Shape{
	"data":    dataSchema,
	"agent":   agentSchema,
	"outputs": outputsSchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Scout] Failed to parse config defaults ", err)
		}
		defaults.Version = "0.1.0"

		configPath := filepath.Join(filepath.Clean(defaults.Data.Dir), "scout.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Scout] Failed to read config file ", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Scout] Failed to parse config file ", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Scout] Failed to parse config ", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
