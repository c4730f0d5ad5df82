package workflow

import (
	"io"

	"github.com/agubarev/lowcode/pkg/fault"
	"gopkg.in/yaml.v3"
)

// LoadDefinitionYAML parses a definition document, unknown
// keys are rejected; the result is not validated yet
func LoadDefinitionYAML(r io.Reader) (Definition, error) {
	var d Definition

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return Definition{}, fault.New(fault.KValidation, "workflow definition document is empty")
		}

		return Definition{}, fault.Wrap(err, fault.KValidation, "failed to parse workflow definition")
	}

	return d, nil
}

// UnmarshalYAML starts from the default permissions, so that
// omitted flags keep their defaults
func (p *StatePermissions) UnmarshalYAML(value *yaml.Node) error {
	type plain StatePermissions

	raw := plain(DefaultStatePermissions())
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*p = StatePermissions(raw)

	return nil
}
