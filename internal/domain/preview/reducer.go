package preview

import (
	"fmt"
	"strings"

	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
)

// State is what a preview renders. Version counts applied patches.
type State struct {
	Template     template.Document `json:"template"`
	SectionOrder []string          `json:"sectionOrder"`
	Version      int               `json:"version"`
}

// NewState copies a resolution into a fresh preview state.
func NewState(res *template.Resolution) State {
	if res == nil {
		return State{Template: template.Defaults(), SectionOrder: []string{}}
	}
	return State{
		Template:     res.Template.Clone(),
		SectionOrder: append([]string{}, res.SectionOrder...),
	}
}

// Apply returns the state after msg. Only the referenced subtree is
// replaced; the input state is never modified, so successive patches compose.
func Apply(s State, msg Message) (State, error) {
	next := State{
		Template:     template.Document{Components: shallowCopy(s.Template.Components)},
		SectionOrder: s.SectionOrder,
		Version:      s.Version + 1,
	}

	switch m := msg.(type) {
	case ThemePatch:
		token := strings.TrimSpace(m.Token)
		if token == "" {
			return s, fmt.Errorf("%w: empty theme token", ErrInvalidPatch)
		}
		if token == "fontScale" {
			f, ok := template.NumberValue(m.Value)
			if !ok || f <= 0 {
				return s, fmt.Errorf("%w: fontScale must be a positive number", ErrInvalidPatch)
			}
		}
		theme := shallowCopy(asMap(next.Template.Components[template.KeyTheme]))
		theme[token] = template.CloneValue(m.Value)
		next.Template.Components[template.KeyTheme] = theme

	case PageReplace:
		key, ok := PageKey(m.Page)
		if !ok {
			return s, fmt.Errorf("%w: unknown page %q", ErrInvalidPatch, m.Page)
		}
		if m.Payload == nil {
			return s, fmt.Errorf("%w: page payload must be an object", ErrInvalidPatch)
		}
		next.Template.Components[key] = template.CloneValue(m.Payload)

	case SectionPatch:
		key, ok := PageKey(m.Page)
		if !ok {
			return s, fmt.Errorf("%w: unknown page %q", ErrInvalidPatch, m.Page)
		}
		if strings.TrimSpace(m.SectionID) == "" {
			return s, fmt.Errorf("%w: empty section id", ErrInvalidPatch)
		}
		page := shallowCopy(asMap(next.Template.Components[key]))
		page[m.SectionID] = template.CloneValue(m.Payload)
		next.Template.Components[key] = page

	case SectionOrder:
		order := make([]string, 0, len(m.Order))
		for _, id := range m.Order {
			if id = strings.TrimSpace(id); id != "" {
				order = append(order, id)
			}
		}
		next.SectionOrder = order

	case CustomPages:
		pages := make([]any, 0, len(m.Pages))
		for _, p := range m.Pages {
			if _, ok := p.(map[string]any); !ok {
				return s, fmt.Errorf("%w: custom page must be an object", ErrInvalidPatch)
			}
			pages = append(pages, template.CloneValue(p))
		}
		next.Template.Components[template.KeyCustomPages] = pages

	case LogoReplace:
		next.Template.Components[template.KeyLogo] = strings.TrimSpace(m.Logo)

	case Select:
		return s, ErrNotPatch

	default:
		return s, ErrUnknownMessage
	}
	return next, nil
}

// PageKey maps an editor page name ("home", "about_page", ...) to its
// component key.
func PageKey(page string) (string, bool) {
	switch strings.TrimSpace(strings.ToLower(page)) {
	case "home", template.KeyHomePage:
		return template.KeyHomePage, true
	case "about", template.KeyAboutPage:
		return template.KeyAboutPage, true
	case "contact", template.KeyContactPage:
		return template.KeyContactPage, true
	case "social", template.KeySocialPage:
		return template.KeySocialPage, true
	}
	return "", false
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
