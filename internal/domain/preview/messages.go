// Package preview defines the editor <-> live preview message protocol and
// the reducer that applies editor patches to an in-memory template.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownMessage = errors.New("preview: unknown message type")
	ErrInvalidPatch   = errors.New("preview: invalid patch")
	ErrNotPatch       = errors.New("preview: message is not a patch")
)

type Kind string

const (
	KindThemePatch   Kind = "theme-patch"
	KindPageReplace  Kind = "page-replace"
	KindSectionPatch Kind = "section-patch"
	KindSectionOrder Kind = "section-order"
	KindCustomPages  Kind = "custom-pages"
	KindLogo         Kind = "logo-replace"
	// KindSelect is emitted by the preview when a section is clicked.
	KindSelect Kind = "template-editor-select"
)

// Message is one variant of the protocol.
type Message interface {
	Kind() Kind
}

type ThemePatch struct {
	Token string `json:"token"`
	Value any    `json:"value"`
}

type PageReplace struct {
	Page    string         `json:"page"`
	Payload map[string]any `json:"payload"`
}

// SectionPatch replaces one key inside a page payload.
type SectionPatch struct {
	Page      string `json:"page"`
	SectionID string `json:"sectionId"`
	Payload   any    `json:"payload"`
}

type SectionOrder struct {
	Order []string `json:"order"`
}

type CustomPages struct {
	Pages []any `json:"pages"`
}

type LogoReplace struct {
	Logo string `json:"logo"`
}

type Select struct {
	VendorID  string `json:"vendorId"`
	Page      string `json:"page"`
	SectionID string `json:"sectionId"`
}

func (ThemePatch) Kind() Kind   { return KindThemePatch }
func (PageReplace) Kind() Kind  { return KindPageReplace }
func (SectionPatch) Kind() Kind { return KindSectionPatch }
func (SectionOrder) Kind() Kind { return KindSectionOrder }
func (CustomPages) Kind() Kind  { return KindCustomPages }
func (LogoReplace) Kind() Kind  { return KindLogo }
func (Select) Kind() Kind       { return KindSelect }

// Inbound is a decoded message together with the origin it claims.
type Inbound struct {
	Origin  string
	Message Message
}

type header struct {
	Type   Kind   `json:"type"`
	Origin string `json:"origin,omitempty"`
}

// Decode parses a wire message. The body is flat: {"type": ..., fields...}.
func Decode(data []byte) (Inbound, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var msg Message
	var err error
	switch h.Type {
	case KindThemePatch:
		var m ThemePatch
		err = json.Unmarshal(data, &m)
		msg = m
	case KindPageReplace:
		var m PageReplace
		err = json.Unmarshal(data, &m)
		msg = m
	case KindSectionPatch:
		var m SectionPatch
		err = json.Unmarshal(data, &m)
		msg = m
	case KindSectionOrder:
		var m SectionOrder
		err = json.Unmarshal(data, &m)
		msg = m
	case KindCustomPages:
		var m CustomPages
		err = json.Unmarshal(data, &m)
		msg = m
	case KindLogo:
		var m LogoReplace
		err = json.Unmarshal(data, &m)
		msg = m
	case KindSelect:
		var m Select
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownMessage, h.Type)
	}
	if err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return Inbound{Origin: h.Origin, Message: msg}, nil
}

// Encode writes a message in the flat wire form.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = msg.Kind()
	return json.Marshal(fields)
}
