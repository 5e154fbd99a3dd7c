package codex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iterflow/iterflow/internal/agent"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		req  agent.Request
		want []string
	}{
		{
			name: "non-interactive uses exec with stdin marker",
			req:  agent.Request{Prompt: "p"},
			want: []string{"exec", "--full-auto", "-"},
		},
		{
			name: "model flag",
			cfg:  Config{Model: "o4"},
			req:  agent.Request{Prompt: "p"},
			want: []string{"exec", "--full-auto", "-m", "o4", "-"},
		},
		{
			name: "interactive seeds a session with the prompt",
			req:  agent.Request{Prompt: "p", Interactive: true},
			want: []string{"p"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, New(tc.cfg).BuildArgs(tc.req))
		})
	}
}
