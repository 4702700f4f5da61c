package environment

import "gopkg.in/yaml.v3"

type Env int

const (
	Unknown Env = iota
	Development
	Production
)

func FromString(s string) Env {
	switch s {
	case "dev":
		return Development
	case "prod":
		return Production
	default:
		return Unknown
	}
}

func (e Env) String() string {
	switch e {
	case Development:
		return "dev"
	case Production:
		return "prod"
	default:
		return "unknown"
	}
}

func (e *Env) UnmarshalYAML(node *yaml.Node) error {
	var raw string

	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	*e = FromString(raw)
	return nil
}
