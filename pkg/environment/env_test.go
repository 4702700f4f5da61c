package environment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEnv_UnmarshalYAML(t *testing.T) {
	tests := [...]struct {
		raw  string
		want Env
	}{
		{raw: "env: prod", want: Production},
		{raw: "env: dev", want: Development},
		{raw: "env: staging", want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var cfg struct {
				Env Env `yaml:"env"`
			}
			require.NoError(t, yaml.Unmarshal([]byte(tt.raw), &cfg))
			require.Equal(t, tt.want, cfg.Env)
		})
	}
}
