package schema

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// LoadFlow loads a flow definition from path.
func LoadFlow(path string) (*Flow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Flow
	if err := yaml.UnmarshalWithOptions(b, &f, yaml.Strict()); err != nil {
		return nil, errors.Wrap(err, "failed to decode flow YAML")
	}
	return &f, nil
}

// LoadEnvironment loads an environment definition from path.
func LoadEnvironment(path string) (*Environment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Environment
	if err := yaml.UnmarshalWithOptions(b, &e, yaml.Strict()); err != nil {
		return nil, errors.Wrap(err, "failed to decode environment YAML")
	}
	return &e, nil
}

// LoadMappings loads parameter-to-variable mappings from path.
func LoadMappings(path string) ([]ParameterMapping, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ms []ParameterMapping
	if err := yaml.UnmarshalWithOptions(b, &ms, yaml.Strict()); err != nil {
		return nil, errors.Wrap(err, "failed to decode mapping YAML")
	}
	return ms, nil
}
