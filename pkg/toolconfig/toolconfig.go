// Package toolconfig reads the per-tool argument tables that drive command
// line assembly for every benchmark tool.
//
// It expects a config file of the format:
//
//	mpirun: "srun"
//	elbencho:
//	    binary: "/usr/bin/elbencho"
//	    common_args: "--threads 1 --sync"
//	    timelimit_args: "--timelimit"
//	    access_args:
//	        write:  "--write"
//	        read:   "--read"
//	        clean:  "--delfiles"
//	    pattern_args:
//	        bw:     "--size 1t --block 1m"
//	        iops:   "--size 1t --block 4k --rand"
//
// where "mpirun" names the distributed job launcher and every other top-level
// key describes the command line arguments for one benchmark tool.
package toolconfig

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Tool holds one benchmark tool's argument tables. All argument values are
// whitespace-separated strings exactly as they appear in the config file;
// tokenization happens when a launcher is constructed from them.
type Tool struct {
	Binary            string                       `mapstructure:"binary"`
	CommonArgs        string                       `mapstructure:"common_args"`
	AccessArgs        map[string]string            `mapstructure:"access_args"`
	PatternArgs       map[string]string            `mapstructure:"pattern_args"`
	AccessPatternArgs map[string]map[string]string `mapstructure:"access_pattern_args"`
	RandomDataArgs    string                       `mapstructure:"random_data_args"`
	TimelimitArgs     string                       `mapstructure:"timelimit_args"`
	ServiceArgs       string                       `mapstructure:"service_args"`
	ShutdownArgs      string                       `mapstructure:"shutdown_args"`
}

// Config is the full tool configuration: the job launcher binary plus one
// Tool entry per benchmark.
type Config struct {
	Mpirun string
	Tools  map[string]Tool
}

const mpirunKey = "mpirun"

// Load reads and decodes the tool configuration from a YAML file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "could not read tool config %q", path)
	}
	return Parse(raw)
}

// Parse decodes the tool configuration from YAML bytes.
func Parse(raw []byte) (Config, error) {
	document := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return Config{}, errors.Wrap(err, "could not parse tool config")
	}

	config := Config{Tools: map[string]Tool{}}

	for key, value := range document {
		if key == mpirunKey {
			launcher, ok := value.(string)
			if !ok {
				return Config{}, errors.Errorf("config key %q must be a string", mpirunKey)
			}
			config.Mpirun = launcher
			continue
		}

		tool := Tool{}
		if err := mapstructure.Decode(value, &tool); err != nil {
			return Config{}, errors.Wrapf(err, "could not decode config for tool %q", key)
		}
		config.Tools[key] = tool
	}

	return config, nil
}

// Tool returns the argument tables for the named benchmark tool.
func (c Config) Tool(name string) (Tool, error) {
	tool, ok := c.Tools[name]
	if !ok {
		return Tool{}, errors.Errorf("tool %q not present in config", name)
	}
	return tool, nil
}
