package schema

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed streaming_history.yaml
var defaultSpec []byte

// Default returns the built-in spec for streaming-history exports.
func Default() *Spec {
	spec, err := Parse(defaultSpec)
	if err != nil {
		panic(fmt.Sprintf("embedded field spec is invalid: %v", err))
	}
	return spec
}

// Load reads a spec from path, or returns the built-in spec when path is empty.
func Load(path string) (*Spec, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field spec %q: %w", path, err)
	}
	return Parse(data)
}
