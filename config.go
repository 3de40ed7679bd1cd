package netana

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrConfig is returned for invalid analysis parameters
var ErrConfig = errors.New("invalid analysis configuration")

// AnalysisCfg holds the parameters of a run of the analysis
type AnalysisCfg struct {
	// HopLimit is the number of hops followed per demand
	HopLimit int `json:"hoplimit" yaml:"hoplimit" toml:"hop_limit"`

	// DistLimit is the largest distance tracked; polynomials are bounded by DistLimit+1
	DistLimit int `json:"distlimit" yaml:"distlimit" toml:"dist_limit"`

	// Iters is the number of passes
	Iters int `json:"iters" yaml:"iters" toml:"iters"`

	// AvgWindow is the number of recent passes averaged into the state fed to the
	// next pass.  Zero selects HopLimit.
	AvgWindow int `json:"avgwindow" yaml:"avgwindow" toml:"avg_window"`

	// AdmitCutoff and RouteCutoff are the relative probabilities at which the
	// arrangement searches of admission and routing stop
	AdmitCutoff float64 `json:"admitcutoff" yaml:"admitcutoff" toml:"admit_cutoff"`
	RouteCutoff float64 `json:"routecutoff" yaml:"routecutoff" toml:"route_cutoff"`

	// RouteLimit caps the arrangements enumerated by the routing analysis at a node
	RouteLimit int `json:"routelimit" yaml:"routelimit" toml:"route_limit"`

	// AbortOnError stops the run at the first node failure instead of collecting failures
	AbortOnError bool `json:"abortonerror" yaml:"abortonerror" toml:"abort_on_error"`

	// TimeLimit bounds the wall-clock time of a run, in seconds.  Zero means no limit.
	TimeLimit float64 `json:"timelimit" yaml:"timelimit" toml:"time_limit"`
}

// DefaultAnalysisCfg returns the parameters used when none are given
func DefaultAnalysisCfg() AnalysisCfg {
	return AnalysisCfg{
		HopLimit:    10,
		DistLimit:   100,
		Iters:       10,
		AdmitCutoff: DefaultCutoff,
		RouteCutoff: DefaultCutoff,
		RouteLimit:  DefaultRouteLimit,
	}
}

// Window returns the averaging window in force
func (cfg AnalysisCfg) Window() int {
	if cfg.AvgWindow == 0 {
		return cfg.HopLimit
	}
	return cfg.AvgWindow
}

// Bound returns the degree bound of the distance polynomials
func (cfg AnalysisCfg) Bound() int {
	return cfg.DistLimit + 1
}

// Timeout converts TimeLimit to a duration
func (cfg AnalysisCfg) Timeout() time.Duration {
	return time.Duration(cfg.TimeLimit * float64(time.Second))
}

// Validate checks every parameter is in range
func (cfg AnalysisCfg) Validate() error {
	switch {
	case cfg.HopLimit <= 0:
		return fmt.Errorf("hop limit %d must be positive: %w", cfg.HopLimit, ErrConfig)
	case cfg.DistLimit <= 0:
		return fmt.Errorf("distance limit %d must be positive: %w", cfg.DistLimit, ErrConfig)
	case cfg.Iters <= 0:
		return fmt.Errorf("iteration count %d must be positive: %w", cfg.Iters, ErrConfig)
	case cfg.AvgWindow < 0:
		return fmt.Errorf("averaging window %d is negative: %w", cfg.AvgWindow, ErrConfig)
	case !(cfg.AdmitCutoff > 0) || cfg.AdmitCutoff > 1:
		return fmt.Errorf("admission cutoff %v must lie in (0,1]: %w", cfg.AdmitCutoff, ErrConfig)
	case !(cfg.RouteCutoff >= 0) || cfg.RouteCutoff > 1:
		return fmt.Errorf("routing cutoff %v must lie in [0,1]: %w", cfg.RouteCutoff, ErrConfig)
	case cfg.RouteLimit <= 0:
		return fmt.Errorf("routing limit %d must be positive: %w", cfg.RouteLimit, ErrConfig)
	case cfg.TimeLimit < 0:
		return fmt.Errorf("time limit %v is negative: %w", cfg.TimeLimit, ErrConfig)
	}
	return nil
}

// descFormat selects the serialization of a file by its extension: yaml, toml or json
func descFormat(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return "json"
}

// marshalDesc serializes v in the given format
func marshalDesc(v any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(v)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(v, "", "\t")
}

// unmarshalDesc deserializes dict into v
func unmarshalDesc(dict []byte, v any, format string) error {
	switch format {
	case "yaml":
		return yaml.Unmarshal(dict, v)
	case "toml":
		_, err := toml.Decode(string(dict), v)
		return err
	}
	return json.Unmarshal(dict, v)
}

// writeDesc stores v in the named file, serialized according to its extension
func writeDesc(v any, filename string) error {
	data, err := marshalDesc(v, descFormat(filename))
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// readDesc fills v from dict, or from the named file when dict is empty
func readDesc(filename string, dict []byte, v any) error {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return err
		}
	}
	return unmarshalDesc(dict, v, descFormat(filename))
}

// WriteToFile stores the configuration in the named file.
// Serialization to json, yaml or toml is selected by the extension of the name.
func (cfg AnalysisCfg) WriteToFile(filename string) error {
	return writeDesc(cfg, filename)
}

// ReadAnalysisCfg deserializes a configuration.  If dict is empty the named file is read
// to acquire the bytes.  Parameters the description leaves out keep their defaults.
func ReadAnalysisCfg(filename string, dict []byte) (*AnalysisCfg, error) {
	cfg := DefaultAnalysisCfg()
	if err := readDesc(filename, dict, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
