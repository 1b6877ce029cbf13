package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeFallsBackPerToken(t *testing.T) {
	doc := Defaults()
	doc.Components[KeyTheme] = map[string]any{"bannerColor": "#abcdef", "fontScale": -2.0}

	theme := doc.Theme()
	assert.Equal(t, "#abcdef", theme.BannerColor)
	assert.Equal(t, "#111827", theme.TemplateColor)
	assert.Equal(t, 1.0, theme.FontScale)
}

func TestCustomPagesPublishedFlag(t *testing.T) {
	doc := Defaults()
	doc.Components[KeyCustomPages] = []any{
		map[string]any{"id": "1", "title": "Shipping", "slug": "shipping"},
		map[string]any{"id": "2", "title": "Draft", "slug": "draft", "isPublished": false},
		map[string]any{"id": "3", "title": "Returns", "slug": "returns", "isPublished": true},
		"garbage",
		map[string]any{"id": "4"},
	}

	pages := doc.CustomPages()
	if assert.Len(t, pages, 3) {
		assert.True(t, pages[0].Published())
		assert.False(t, pages[1].Published())
		assert.True(t, pages[2].Published())
	}
}

func TestPageTypeComponentKey(t *testing.T) {
	assert.Equal(t, KeyHomePage, PageHome.ComponentKey())
	assert.Equal(t, KeyAboutPage, PageAbout.ComponentKey())
	assert.Equal(t, KeyContactPage, PageContact.ComponentKey())
}

func TestCloneIsDeep(t *testing.T) {
	doc := Defaults()
	clone := doc.Clone()
	clone.Page(KeyContactPage)["heading"] = "changed"
	assert.Equal(t, "Contact Us", doc.Page(KeyContactPage)["heading"])
}
