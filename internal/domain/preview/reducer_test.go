package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
)

func baseState(t *testing.T) State {
	t.Helper()
	res, ok := template.Resolve(map[string]any{
		"components":   map[string]any{"home_page": map[string]any{"button_header": "Shop"}},
		"sectionOrder": []any{"hero", "products"},
	})
	require.True(t, ok)
	return NewState(res)
}

func TestSequentialPatchesCompose(t *testing.T) {
	s := baseState(t)
	var err error

	s, err = Apply(s, ThemePatch{Token: "bannerColor", Value: "#ff0000"})
	require.NoError(t, err)
	s, err = Apply(s, ThemePatch{Token: "templateColor", Value: "#00ff00"})
	require.NoError(t, err)
	s, err = Apply(s, SectionPatch{Page: "home", SectionID: "header_text", Payload: "Hello"})
	require.NoError(t, err)
	s, err = Apply(s, SectionPatch{Page: "home", SectionID: "button_color", Payload: "#123456"})
	require.NoError(t, err)
	s, err = Apply(s, SectionOrder{Order: []string{"products", " ", "hero"}})
	require.NoError(t, err)

	theme := s.Template.Theme()
	assert.Equal(t, "#ff0000", theme.BannerColor)
	assert.Equal(t, "#00ff00", theme.TemplateColor)

	home := s.Template.Page(template.KeyHomePage)
	assert.Equal(t, "Shop", home["button_header"])
	assert.Equal(t, "Hello", home["header_text"])
	assert.Equal(t, "#123456", home["button_color"])

	assert.Equal(t, []string{"products", "hero"}, s.SectionOrder)
	assert.Equal(t, 5, s.Version)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := baseState(t)
	before := s.Template.Clone()

	next, err := Apply(s, PageReplace{Page: "about", Payload: map[string]any{"heading": "New"}})
	require.NoError(t, err)
	_, err = Apply(next, ThemePatch{Token: "bannerColor", Value: "#000"})
	require.NoError(t, err)

	assert.Equal(t, before, s.Template)
	assert.Equal(t, "New", next.Template.Page(template.KeyAboutPage)["heading"])
	assert.Equal(t, "#f3f4f6", next.Template.Theme().BannerColor)
}

func TestPageReplaceIsWholesale(t *testing.T) {
	s := baseState(t)
	s, err := Apply(s, PageReplace{Page: "home_page", Payload: map[string]any{"hero_style": "split"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hero_style": "split"}, s.Template.Page(template.KeyHomePage))
	// untouched pages keep their values
	assert.Equal(t, template.Defaults().Page(template.KeyContactPage), s.Template.Page(template.KeyContactPage))
}

func TestInvalidPatchesLeaveStateUnchanged(t *testing.T) {
	s := baseState(t)
	for _, msg := range []Message{
		ThemePatch{Token: ""},
		ThemePatch{Token: "fontScale", Value: "big"},
		ThemePatch{Token: "fontScale", Value: 0.0},
		PageReplace{Page: "checkout", Payload: map[string]any{}},
		PageReplace{Page: "home"},
		SectionPatch{Page: "home", SectionID: ""},
		CustomPages{Pages: []any{"nope"}},
	} {
		got, err := Apply(s, msg)
		assert.ErrorIs(t, err, ErrInvalidPatch, "%#v", msg)
		assert.Equal(t, s, got)
	}

	got, err := Apply(s, Select{Page: "home", SectionID: "hero"})
	assert.ErrorIs(t, err, ErrNotPatch)
	assert.Equal(t, s, got)
}

func TestCustomPagesAndLogo(t *testing.T) {
	s := baseState(t)
	s, err := Apply(s, CustomPages{Pages: []any{map[string]any{"title": "FAQ", "slug": "faq"}}})
	require.NoError(t, err)
	s, err = Apply(s, LogoReplace{Logo: " /uploads/logo.png "})
	require.NoError(t, err)

	pages := s.Template.CustomPages()
	require.Len(t, pages, 1)
	assert.Equal(t, "faq", pages[0].Slug)
	assert.Equal(t, "/uploads/logo.png", s.Template.Logo())
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	in, err := Decode([]byte(`{"type":"theme-patch","origin":"https://shop.example","token":"bannerColor","value":"#fff"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example", in.Origin)
	assert.Equal(t, ThemePatch{Token: "bannerColor", Value: "#fff"}, in.Message)

	body, err := Encode(Select{VendorID: "v1", Page: "home", SectionID: "hero"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"template-editor-select","vendorId":"v1","page":"home","sectionId":"hero"}`, string(body))

	_, err = Decode([]byte(`{"type":"explode"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
	_, err = Decode([]byte(`{"type":"section-order","order":"a"}`))
	assert.ErrorIs(t, err, ErrInvalidPatch)
	_, err = Decode([]byte(`[`))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestSameOrigin(t *testing.T) {
	assert.True(t, SameOrigin("https://shop.example", "https://SHOP.example:443"))
	assert.True(t, SameOrigin("http://localhost:8080", "http://localhost:8080/"))
	assert.False(t, SameOrigin("http://localhost:8080", "http://localhost:3000"))
	assert.False(t, SameOrigin("https://shop.example", "http://shop.example"))
	assert.False(t, SameOrigin("", "https://shop.example"))
	assert.False(t, SameOrigin("null", "null"))
}
