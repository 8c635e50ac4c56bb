package engine

import (
	"dario.cat/mergo"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
)

// prepareParameters materializes the initial parameter values of a run.
// For each declared parameter an environment mapping wins over the declared
// default; a parameter with neither stays unbound.
func prepareParameters(flow *schema.Flow, sub *schema.SubEnvironment, mappings []schema.ParameterMapping) map[string]any {
	values := map[string]any{}
	for _, p := range flow.Parameters {
		if v, ok := mappedValue(p.Name, sub, mappings); ok {
			values[p.Name] = v
			continue
		}
		if p.Default != nil {
			values[p.Name] = *p.Default
		}
	}
	return values
}

func mappedValue(name string, sub *schema.SubEnvironment, mappings []schema.ParameterMapping) (any, bool) {
	if sub == nil {
		return nil, false
	}
	for _, m := range mappings {
		if m.ParameterName != name || m.VariableName == nil {
			continue
		}
		if v, ok := sub.Variables[*m.VariableName]; ok {
			return v, true
		}
	}
	return nil, false
}

// checkRequiredParameters lists the required parameters that are still
// unbound. A bound nil counts as bound.
func checkRequiredParameters(flow *schema.Flow, values map[string]any) []errors.MissingParameter {
	var missing []errors.MissingParameter
	for _, p := range flow.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := values[p.Name]; ok {
			continue
		}
		missing = append(missing, errors.MissingParameter{
			Name:     p.Name,
			Type:     p.Type,
			Required: true,
		})
	}
	return missing
}

// mergeParameterValues merges supplied values into dst, supplied values
// winning over existing ones.
func mergeParameterValues(dst map[string]any, supplied map[string]any) (map[string]any, error) {
	if dst == nil {
		dst = map[string]any{}
	}
	if err := mergo.Merge(&dst, supplied, mergo.WithOverride); err != nil {
		return dst, errors.Wrap(err, "failed to merge parameter values")
	}
	return dst, nil
}
