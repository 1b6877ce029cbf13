// Package template defines the vendor storefront template document and the
// resolver that turns partial backend payloads into a complete document.
package template

// Known component keys.
const (
	KeyLogo         = "logo"
	KeyHomePage     = "home_page"
	KeyAboutPage    = "about_page"
	KeyContactPage  = "contact_page"
	KeySocialPage   = "social_page"
	KeyTheme        = "theme"
	KeyCustomPages  = "custom_pages"
	KeySectionOrder = "section_order"
)

// PageKeys lists the page payload keys in a stable order.
var PageKeys = []string{KeyHomePage, KeyAboutPage, KeyContactPage, KeySocialPage}

// KnownKeys lists every key that must be present after resolution.
var KnownKeys = []string{
	KeyLogo, KeyHomePage, KeyAboutPage, KeyContactPage, KeySocialPage, KeyTheme, KeyCustomPages,
}

// PageType identifies which storefront page a template fetch is for.
type PageType string

const (
	PageHome    PageType = "home"
	PageAbout   PageType = "about"
	PageContact PageType = "contact"
)

// ComponentKey maps a page type to the component key holding its payload.
func (p PageType) ComponentKey() string {
	switch p {
	case PageAbout:
		return KeyAboutPage
	case PageContact:
		return KeyContactPage
	default:
		return KeyHomePage
	}
}

// Document is a vendor's template configuration. Components holds arbitrary
// nested JSON values keyed by section name.
type Document struct {
	Components map[string]any `json:"components"`
}

type Theme struct {
	TemplateColor string  `json:"templateColor"`
	BannerColor   string  `json:"bannerColor"`
	FontScale     float64 `json:"fontScale"`
}

type CustomPage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsPublished *bool  `json:"isPublished,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Published reports whether the page is visible. Only an explicit false hides it.
func (p CustomPage) Published() bool {
	return p.IsPublished == nil || *p.IsPublished
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return Document{Components: cloneMap(d.Components)}
}

// Logo returns the logo URL or path, empty when unset.
func (d Document) Logo() string {
	s, _ := d.Components[KeyLogo].(string)
	return s
}

// Page returns the payload stored under a page key. A non-object payload
// yields an empty map so renderers can index it safely.
func (d Document) Page(key string) map[string]any {
	if m, ok := d.Components[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Theme reads the theme tokens, filling gaps from the default theme.
func (d Document) Theme() Theme {
	theme := defaultTheme()
	raw, ok := d.Components[KeyTheme].(map[string]any)
	if !ok {
		return theme
	}
	if s := StringValue(raw["templateColor"]); s != "" {
		theme.TemplateColor = s
	}
	if s := StringValue(raw["bannerColor"]); s != "" {
		theme.BannerColor = s
	}
	if f, ok := NumberValue(raw["fontScale"]); ok && f > 0 {
		theme.FontScale = f
	}
	return theme
}

// CustomPages decodes the custom page list, skipping malformed entries.
func (d Document) CustomPages() []CustomPage {
	return DecodeCustomPages(d.Components[KeyCustomPages])
}

// DecodeCustomPages converts a raw custom_pages value into typed pages.
func DecodeCustomPages(raw any) []CustomPage {
	items, ok := raw.([]any)
	if !ok {
		return []CustomPage{}
	}
	pages := make([]CustomPage, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		page := CustomPage{
			ID:      StringValue(m["id"]),
			Title:   StringValue(m["title"]),
			Slug:    StringValue(m["slug"]),
			Content: StringValue(m["content"]),
		}
		if page.Slug == "" && page.Title == "" {
			continue
		}
		if b, ok := m["isPublished"].(bool); ok {
			published := b
			page.IsPublished = &published
		}
		pages = append(pages, page)
	}
	return pages
}

// StringValue returns v when it is a string, otherwise "".
func StringValue(v any) string {
	s, _ := v.(string)
	return s
}

// NumberValue returns v as float64 when it holds a JSON number.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies decoded JSON values.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
