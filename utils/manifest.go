package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const RunInfoFile = "run_info.toml"

// RunInfo is written to <out>/run_info.toml at the start of every run. Its
// params table can be fed back with --config to repeat or resume the run.
type RunInfo struct {
	RunID   string            `toml:"run-id" comment:"Identifier carried by every record of logs/pipeline.log"`
	Started time.Time         `toml:"started"`
	Command string            `toml:"command"`
	Params  map[string]string `toml:"params" comment:"Command line flags, keyed by flag name"`
}

func WriteRunInfo(path string, info RunInfo) error {
	b, err := toml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding run info: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("writing run info: %w", err)
	}
	return nil
}

// ReadParams loads the [params] table of a TOML config file. Values may be
// written as strings, integers or booleans.
func ReadParams(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf("reading config file: %v", err)
	}
	var doc struct {
		Params map[string]any `toml:"params"`
	}
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, configErrorf("parsing config file %s: %v", path, err)
	}
	params := make(map[string]string, len(doc.Params))
	for k, v := range doc.Params {
		params[k] = fmt.Sprint(v)
	}
	return params, nil
}
