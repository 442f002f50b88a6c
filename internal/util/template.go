package util

import (
	"bytes"
	"strings"
	"text/template"
)

// funcs are the helpers available to every prompt template.
var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"trim":  strings.TrimSpace,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
}

// ParseTemplate parses a prompt template with the shared helper funcs.
// This lives in internal to avoid committing to public API stability prematurely.
func ParseTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).Parse(text)
}

// RenderTemplate executes tmpl against data and returns the output.
func RenderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
