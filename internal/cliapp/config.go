// Package cliapp wires the murk binary together: the cobra command tree,
// the stdin command reader, the slog-based logger, and optional project
// config. Grounded on mercator-hq-jupiter's cmd/mercator/root.go (cobra
// tree shape) and pkg/telemetry/logging/logger.go (slog wrapper), and on
// the original cli/command.rs's Config/Command clap definitions for which
// flags exist.
package cliapp

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional .murk.yaml project file, merged under CLI flags:
// a flag the user actually passed always wins over a config default.
type Config struct {
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	Split  string `yaml:"split"`
	Log    string `yaml:"log"`
}

// LoadConfig reads path if it exists; a missing file is not an error, it
// just means "no project defaults".
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge layers a loaded Config under explicitly-set flag values.
func (c Config) Merge(format, output, split, log string) (outFormat, outOutput, outSplit, outLog string) {
	outFormat, outOutput, outSplit, outLog = format, output, split, log
	if outFormat == "" {
		outFormat = c.Format
	}
	if outOutput == "" {
		outOutput = c.Output
	}
	if outSplit == "" {
		outSplit = c.Split
	}
	if outLog == "" {
		outLog = c.Log
	}
	return
}
