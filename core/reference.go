package core

// ReferenceOutput is the text one reference model produced during fan-out.
type ReferenceOutput struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// References is an ordered collection of reference outputs.
type References []ReferenceOutput

// ByModel indexes the outputs by model identifier.
func (r References) ByModel() map[string]string {
	m := make(map[string]string, len(r))
	for _, ref := range r {
		m[ref.Model] = ref.Text
	}
	return m
}

// Texts returns the output texts in order.
func (r References) Texts() []string {
	out := make([]string, len(r))
	for i, ref := range r {
		out[i] = ref.Text
	}
	return out
}
