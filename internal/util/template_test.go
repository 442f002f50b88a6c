package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("t", `{{range $i, $v := .Items}}{{inc $i}}={{upper $v}};{{end}}{{default "none" .Empty}}`)
	require.NoError(t, err)

	out, err := RenderTemplate(tmpl, map[string]any{"Items": []string{"a", "b"}, "Empty": ""})
	require.NoError(t, err)
	assert.Equal(t, "1=A;2=B;none", out)
}

func TestParseTemplate_Invalid(t *testing.T) {
	_, err := ParseTemplate("bad", "{{ .Foo ")
	assert.Error(t, err)
}

func TestRenderTemplate_NoEscaping(t *testing.T) {
	tmpl, err := ParseTemplate("t", "{{.}}")
	require.NoError(t, err)

	out, err := RenderTemplate(tmpl, "<b>x & y</b>")
	require.NoError(t, err)
	assert.Equal(t, "<b>x & y</b>", out)
}
