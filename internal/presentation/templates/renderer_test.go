package templates

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	doc "github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(logging.NewDiscardLogger())
	require.NoError(t, err)
	return r
}

func homeData(t *testing.T, raw map[string]any) *services.PageData {
	t.Helper()
	res, ok := doc.Resolve(raw)
	require.True(t, ok)
	price := 499.0
	products := []catalog.Product{
		{ID: "p1", Name: "Canvas Sneaker", Variants: []catalog.Variant{{ID: "v1", FinalPrice: &price, Stock: 3}}},
	}
	return &services.PageData{
		VendorID:     "v1",
		VendorName:   "Shoe Co",
		Page:         doc.PageHome,
		Resolution:   res,
		Catalog:      catalog.NewCatalog([]catalog.Category{{ID: "c1", Name: "Shoes"}}, nil, products),
		SectionOrder: res.OrderOrDefault(),
	}
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func sectionIDs(d *goquery.Document) []string {
	var ids []string
	d.Find("section[data-section-id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-section-id")
		ids = append(ids, id)
	})
	return ids
}

func TestHomeFollowsSectionOrder(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{
		"components": map[string]any{
			"home_page": map[string]any{"header_text": "Walk on air"},
		},
		"sectionOrder": []any{"products", "hero"},
	})
	state := preview.NewState(data.Resolution)
	state.SectionOrder = data.SectionOrder

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, &View{Kind: KindHome, Data: data, State: state, Nav: navigation.Compose(navigation.Input{VendorID: "v1", Template: state.Template})}))

	d := parse(t, buf.String())
	assert.Equal(t, []string{"products", "hero"}, sectionIDs(d))
	assert.Equal(t, "Walk on air", d.Find(".sf-hero h1").Text())
	assert.Equal(t, "Canvas Sneaker", d.Find(".sf-product-card .sf-product-name").Text())
	assert.Equal(t, "Rs. 499.00", d.Find(".sf-product-card .sf-product-price").Text())
	assert.Equal(t, "Shoe Co", d.Find("title").Text())
	assert.Equal(t, 1, d.Find("script").Length())
	assert.Contains(t, d.Find("script").Text(), "track/view")
}

func TestThemeColorsAreGuarded(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{
		"components": map[string]any{
			"theme": map[string]any{"bannerColor": "red;background:url(x)", "templateColor": "#0f0"},
		},
	})
	state := preview.NewState(data.Resolution)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, &View{Kind: KindAbout, Data: data, State: state}))

	style, ok := parse(t, buf.String()).Find("body").Attr("style")
	require.True(t, ok)
	assert.Contains(t, style, "--template-color: #0f0")
	assert.Contains(t, style, "--banner-color: "+doc.Defaults().Theme().BannerColor)
	assert.NotContains(t, style, "url(")
}

func TestRenderPreviewUsesPatchedState(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{"sectionOrder": []any{"hero", "products"}})

	state := preview.NewState(data.Resolution)
	state.SectionOrder = data.SectionOrder
	state, err := preview.Apply(state, preview.SectionPatch{Page: "home", SectionID: "header_text", Payload: "Live edit"})
	require.NoError(t, err)
	state, err = preview.Apply(state, preview.SectionOrder{Order: []string{"products", "hero"}})
	require.NoError(t, err)

	html, err := r.RenderPreview(data, state)
	require.NoError(t, err)
	assert.NotContains(t, html, "<html")

	d := parse(t, html)
	assert.Equal(t, []string{"products", "hero"}, sectionIDs(d))
	assert.Equal(t, "Live edit", d.Find(".sf-hero h1").Text())
}

func TestUnknownCategoryKeepsLiteralLabel(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{})
	res := catalog.ResolveCategory("mystery-boxes", data.Catalog.Map, data.Catalog.Products)

	body, err := r.RenderBody(&View{Kind: KindCategory, Data: data, State: preview.NewState(data.Resolution), Category: &res})
	require.NoError(t, err)

	d := parse(t, body)
	assert.Equal(t, "mystery boxes", d.Find(".sf-listing h1").Text())
	assert.Equal(t, 0, d.Find(".sf-product-card").Length())
	assert.Equal(t, 2, d.Find(".sf-empty").Length())
}

func TestCartFlashIsEscaped(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{})
	cart := &shopper.Cart{Items: []shopper.CartItem{{ID: "i1", ProductName: "Canvas Sneaker", Quantity: 2, Price: 10}}, Total: 20}

	body, err := r.RenderBody(&View{
		Kind:     KindCart,
		Data:     data,
		State:    preview.NewState(data.Resolution),
		Cart:     cart,
		SignedIn: true,
		Flash:    "<b>Out of stock</b>",
	})
	require.NoError(t, err)

	d := parse(t, body)
	assert.Equal(t, "<b>Out of stock</b>", d.Find(".sf-flash span").Text())
	assert.Equal(t, 0, d.Find(".sf-flash b").Length())
	action, _ := d.Find("form[action$='/remove']").Attr("action")
	assert.Equal(t, "/template/v1/cart/items/i1/remove", action)
}

func TestPreviewPagesLoadTheSocketScript(t *testing.T) {
	r := newTestRenderer(t)
	data := homeData(t, map[string]any{})

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, &View{
		Kind:    KindHome,
		Data:    data,
		State:   preview.NewState(data.Resolution),
		Preview: &PreviewInfo{ID: "pv1", Token: "tok", Page: "home"},
	}))
	script := parse(t, buf.String()).Find("script").Text()
	assert.Contains(t, script, "/ws")
	assert.NotContains(t, script, "track/view")
	assert.NotContains(t, script, `"*"`)
	assert.Contains(t, script, "event.origin !== origin")
	assert.Contains(t, script, "postMessage(select, origin)")
}
