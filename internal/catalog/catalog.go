// Package catalog ships the built-in flow content: the JSON definitions
// embedded with the binary, and the loader that validates and decodes them.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/montage-ui/guideflow/pkg/api"
)

//go:embed flows/*.json
var flowFS embed.FS

var (
	ErrNotJSON         = errors.New("flow definition is not valid JSON")
	ErrMissingRequired = errors.New("flow definition missing required key")
)

// requiredKeys are checked before decoding so a content mistake reports
// the offending file rather than a zero-valued definition
var requiredKeys = []string{"id", "name", "steps"}

// Load parses and validates every embedded flow definition
func Load() ([]*api.FlowDefinition, error) {
	entries, err := flowFS.ReadDir("flows")
	if err != nil {
		return nil, err
	}

	res := make([]*api.FlowDefinition, 0, len(entries))
	for _, entry := range entries {
		data, err := flowFS.ReadFile("flows/" + entry.Name())
		if err != nil {
			return nil, err
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		res = append(res, def)
	}
	return res, nil
}

// Parse decodes a single flow definition from its JSON form, checking the
// document shape before unmarshalling and the flow structure after
func Parse(data []byte) (*api.FlowDefinition, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrNotJSON
	}
	doc := gjson.ParseBytes(data)
	for _, key := range requiredKeys {
		if !doc.Get(key).Exists() {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequired, key)
		}
	}

	var def api.FlowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// FormConfig decodes a form step's component props into a FormConfig
func FormConfig(c *api.ComponentConfig) (*api.FormConfig, error) {
	data, err := json.Marshal(c.Props)
	if err != nil {
		return nil, err
	}

	var cfg api.FormConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
