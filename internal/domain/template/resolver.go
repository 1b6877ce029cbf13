package template

import "errors"

// ErrNoPayload means a response carried nothing a template can be built from.
var ErrNoPayload = errors.New("template: no usable payload")

// MergeMode records which merge rule produced a resolution.
type MergeMode string

const (
	// MergeComponents: payload.components shallow-overwrites the default components.
	MergeComponents MergeMode = "components"
	// MergeLegacy: only the legacy top-level page keys overwrite defaults.
	MergeLegacy MergeMode = "legacy"
)

type Resolution struct {
	Template     Document  `json:"template"`
	SectionOrder []string  `json:"sectionOrder"`
	Mode         MergeMode `json:"-"`
}

// Resolve builds a complete document from a decoded payload. It returns false
// for nil or non-object input so the caller can move to the next candidate.
func Resolve(raw any) (*Resolution, bool) {
	payload, ok := raw.(map[string]any)
	if !ok || payload == nil {
		return nil, false
	}

	doc := Defaults()
	mode := MergeLegacy

	components, hasComponents := payload["components"].(map[string]any)
	if hasComponents && components != nil {
		mode = MergeComponents
		for key, value := range components {
			doc.Components[key] = CloneValue(value)
		}
	} else {
		components = nil
		for _, key := range PageKeys {
			if value, present := payload[key]; present {
				doc.Components[key] = CloneValue(value)
			}
		}
	}

	// An explicit null under a known key would leave it undefined downstream.
	defaults := Defaults()
	for _, key := range KnownKeys {
		if doc.Components[key] == nil {
			doc.Components[key] = defaults.Components[key]
		}
	}

	order := firstNonEmptyOrder(payload["section_order"], payload["sectionOrder"], componentValue(components, KeySectionOrder))
	return &Resolution{Template: doc, SectionOrder: order, Mode: mode}, true
}

// ResolveBytes decodes a response body, extracts the payload envelope and
// resolves it.
func ResolveBytes(body []byte) (*Resolution, Envelope, error) {
	payload, envelope := ExtractEnvelope(body)
	if envelope == EnvelopeNone {
		return nil, envelope, ErrNoPayload
	}
	res, ok := Resolve(payload)
	if !ok {
		return nil, envelope, ErrNoPayload
	}
	return res, envelope, nil
}

// OrderOrDefault returns the resolved order or the default home layout.
func (r *Resolution) OrderOrDefault() []string {
	if r == nil || len(r.SectionOrder) == 0 {
		return append([]string(nil), DefaultSectionOrder...)
	}
	return append([]string(nil), r.SectionOrder...)
}

func componentValue(components map[string]any, key string) any {
	if components == nil {
		return nil
	}
	return components[key]
}

func firstNonEmptyOrder(candidates ...any) []string {
	for _, candidate := range candidates {
		items, ok := candidate.([]any)
		if !ok || len(items) == 0 {
			continue
		}
		order := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				order = append(order, s)
			}
		}
		if len(order) > 0 {
			return order
		}
	}
	return []string{}
}
