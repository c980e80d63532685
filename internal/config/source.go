package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputSource looks up a named action input.  When required is true and
// the value is empty, implementations return a *MissingInputError.
type InputSource interface {
	Input(key string, required bool) (string, error)
}

func checkRequired(key, value string, required bool) (string, error) {
	if required && value == "" {
		return "", &MissingInputError{Key: key}
	}
	return value, nil
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// EnvSource reads inputs the way the Actions runner passes them: input
// "vm-image-id" is exposed as INPUT_VM-IMAGE-ID.  Values are trimmed.
type EnvSource struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// EnvName returns the environment variable that carries input key.
func EnvName(key string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(key, " ", "_"))
}

func (s EnvSource) Input(key string, required bool) (string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(EnvName(key))
	return checkRequired(key, strings.TrimSpace(v), required)
}

// ---------------------------------------------------------------------------
// In-memory
// ---------------------------------------------------------------------------

// MapSource serves inputs from a map, e.g. --input overrides.
type MapSource map[string]string

func (s MapSource) Input(key string, required bool) (string, error) {
	return checkRequired(key, strings.TrimSpace(s[key]), required)
}

// ---------------------------------------------------------------------------
// YAML file
// ---------------------------------------------------------------------------

// LoadFile reads a YAML mapping of input name to scalar value, shaped like
// a workflow step's "with:" block.  A missing file yields an empty source
// so flags and the environment can supply everything.
func LoadFile(path string) (MapSource, error) {
	src := MapSource{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return src, nil
		}
		return nil, fmt.Errorf("reading inputs %s: %w", path, err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing inputs %s: %w", path, err)
	}
	for k, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parsing inputs %s: %s must be a scalar", path, k)
		}
		src[k] = node.Value
	}
	return src, nil
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

// ChainSource returns the first non-empty value across its sources, in
// order.  The required check applies to the combined result.
type ChainSource []InputSource

func (c ChainSource) Input(key string, required bool) (string, error) {
	for _, s := range c {
		v, err := s.Input(key, false)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return checkRequired(key, "", required)
}
