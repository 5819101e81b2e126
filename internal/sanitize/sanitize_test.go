package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgard/agentpulse/internal/sanitize"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	p := sanitize.NewPlainTextPolicy()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "   ", want: ""},
		{name: "plain", input: "Olá Ana, tudo bem?", want: "Olá Ana, tudo bem?"},
		{name: "bold and italic", input: "Olá **Ana**, imóvel *incrível*", want: "Olá Ana, imóvel incrível"},
		{name: "html tags", input: "Hi <b>there</b>", want: "Hi there"},
		{name: "entities", input: "Preço & condições", want: "Preço & condições"},
		{name: "heading and paragraph", input: "# Title\n\nBody text", want: "Title\n\nBody text"},
		{name: "list", input: "- one\n- two", want: "- one\n- two"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, p.SanitizeText(tc.input))
		})
	}
}

func TestScriptStripsWrappingQuotes(t *testing.T) {
	t.Parallel()

	p := sanitize.NewPlainTextPolicy()
	assert.Equal(t, "Oi Ana!", p.Script(`"Oi Ana!"`))
	assert.Equal(t, "Oi Ana!", p.Script("“Oi Ana!”"))
	assert.Equal(t, `Ele disse "oi" ontem`, p.Script(`Ele disse "oi" ontem`))
}
