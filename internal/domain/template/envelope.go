package template

import "encoding/json"

// Envelope names the response shape a template payload was found in.
type Envelope int

const (
	EnvelopeNone Envelope = iota
	// EnvelopeData is {"data": {...}}.
	EnvelopeData
	// EnvelopeTemplate is {"template": {...}}.
	EnvelopeTemplate
	// EnvelopeRoot is the body itself.
	EnvelopeRoot
)

func (e Envelope) String() string {
	switch e {
	case EnvelopeData:
		return "data"
	case EnvelopeTemplate:
		return "template"
	case EnvelopeRoot:
		return "root"
	default:
		return "none"
	}
}

// ExtractEnvelope picks the payload out of a response body in priority order:
// data, then template, then the root object.
func ExtractEnvelope(body []byte) (any, Envelope) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil || decoded == nil {
		return nil, EnvelopeNone
	}
	root, ok := decoded.(map[string]any)
	if !ok {
		return nil, EnvelopeNone
	}
	if data, ok := root["data"].(map[string]any); ok && data != nil {
		return data, EnvelopeData
	}
	if tpl, ok := root["template"].(map[string]any); ok && tpl != nil {
		return tpl, EnvelopeTemplate
	}
	return root, EnvelopeRoot
}
