// Package dataload builds a *data.Data environment from a YAML or
// JSON file supplied to `smarty render --data` or `smarty repl
// --data`: the document's top-level mapping becomes the set of
// top-level template variables.
package dataload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/value"
	"gopkg.in/yaml.v3"
)

// FromFile reads path (.yaml/.yml or .json, by extension) and returns
// a Data environment with each top-level key assigned as a variable.
// An empty path is not an error: it yields an empty environment, so
// callers can render templates that need no data at all. A path that
// names no readable file is an error.
func FromFile(path string) (*data.Data, error) {
	d := data.New()
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file %s: %w", path, err)
	}

	var doc map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s as JSON: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s as YAML: %w", path, err)
		}
	}

	for k, v := range doc {
		d.Assign(k, value.Of(v).Value())
	}
	return d, nil
}
