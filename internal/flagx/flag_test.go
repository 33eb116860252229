package flagx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate flag and value",
			args:    []string{"-a", "http://localhost:5000", "-x", "nope"},
			allowed: []string{"-a"},
			want:    []string{"-a", "http://localhost:5000"},
		},
		{
			name:    "equals form",
			args:    []string{"--addr=http://localhost:5000", "--other=1"},
			allowed: []string{"--addr"},
			want:    []string{"--addr=http://localhost:5000"},
		},
		{
			name:    "flag without value",
			args:    []string{"-r", "-a", "x"},
			allowed: []string{"-r"},
			want:    []string{"-r"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "x"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FilterArgs(tc.args, tc.allowed))
		})
	}
}
