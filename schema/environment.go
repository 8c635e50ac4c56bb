package schema

// Environment is a named set of sub-environments supplied by the caller.
type Environment struct {
	ID              string           `yaml:"id,omitempty" json:"id,omitempty"`
	Name            string           `yaml:"name" json:"name"`
	SubEnvironments []SubEnvironment `yaml:"subEnvironments" json:"subEnvironments"`
}

// SubEnvironment selects a concrete deployment: its API host map and the
// variable values parameter mappings can point at.
type SubEnvironment struct {
	Name      string         `yaml:"name" json:"name"`
	APIHosts  map[int]string `yaml:"apiHosts,omitempty" json:"apiHosts,omitempty"`
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// SubEnvironment looks up a sub-environment by name.
func (e *Environment) SubEnvironment(name string) (*SubEnvironment, bool) {
	for i := range e.SubEnvironments {
		if e.SubEnvironments[i].Name == name {
			return &e.SubEnvironments[i], true
		}
	}
	return nil, false
}

// ParameterMapping binds a flow parameter to an environment variable.
// A nil VariableName leaves the parameter unmapped.
type ParameterMapping struct {
	ParameterName string  `yaml:"parameterName" json:"parameterName"`
	VariableName  *string `yaml:"variableName,omitempty" json:"variableName,omitempty"`
}
