// Package templates renders storefront pages from a resolved template
// document, live catalog data and the shopper's commerce state.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/navigation"
	"github.com/AtRiskMedia/storefront-go/internal/domain/preview"
	"github.com/AtRiskMedia/storefront-go/internal/domain/shopper"
	doc "github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

//go:embed views/*.html
var viewFS embed.FS

// Kind selects the page body.
type Kind string

const (
	KindHome        Kind = "home"
	KindAbout       Kind = "about"
	KindContact     Kind = "contact"
	KindCategory    Kind = "category"
	KindSubcategory Kind = "subcategory"
	KindProduct     Kind = "product"
	KindCustom      Kind = "custom"
	KindCart        Kind = "cart"
	KindCheckout    Kind = "checkout"
	KindOrders      Kind = "orders"
	KindOrder       Kind = "order"
	KindLogin       Kind = "login"
	KindRegister    Kind = "register"
	KindNotFound    Kind = "notfound"
)

// PreviewInfo is set when the page is rendered inside the template editor.
type PreviewInfo struct {
	ID    string
	Token string
	Page  string
}

// View is everything one page render needs.
type View struct {
	Kind     Kind
	Path     string
	Data     *services.PageData
	State    preview.State
	Nav      navigation.Tree
	LogoURL  string
	Title    string
	Flash    string
	Next     string
	Preview  *PreviewInfo
	SignedIn bool
	User     *shopper.User

	Category    *catalog.CategoryResolution
	Subcategory *catalog.SubcategoryResolution
	Product     *catalog.Product
	CustomPage  *doc.CustomPage

	Cart          *shopper.Cart
	Addresses     []shopper.Address
	Orders        []shopper.Order
	Order         *shopper.Order
	LoginRequired bool
}

// Base is the vendor storefront root path.
func (v *View) Base() string {
	if v.Data == nil {
		return ""
	}
	return navigation.BasePath(v.Data.VendorID)
}

// VendorID of the rendered storefront.
func (v *View) VendorID() string {
	if v.Data == nil {
		return ""
	}
	return v.Data.VendorID
}

// APIBase is the vendor's JSON API root.
func (v *View) APIBase() string {
	return "/api/v1/vendors/" + v.VendorID()
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  *template.Template
	logger *logging.ChanneledLogger
}

var _ services.PreviewRenderer = (*Renderer)(nil)

func NewRenderer(logger *logging.ChanneledLogger) (*Renderer, error) {
	pages, err := template.New("storefront").Funcs(funcs).ParseFS(viewFS, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes a complete HTML document. The page is buffered so a failed
// render never leaves half a document on the wire.
func (r *Renderer) Render(w io.Writer, v *View) error {
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, "layout", v); err != nil {
		r.logger.Template().Error("Page render failed", "kind", v.Kind, "vendorId", v.VendorID(), "error", err)
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderBody renders only the contents of the page's main element.
func (r *Renderer) RenderBody(v *View) (string, error) {
	var buf bytes.Buffer
	if err := r.pages.ExecuteTemplate(&buf, "body", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPreview renders a page body from a preview state over the catalog
// snapshot taken when the preview attached.
func (r *Renderer) RenderPreview(data *services.PageData, state preview.State) (string, error) {
	v := &View{Kind: kindForPage(data.Page), Data: data, State: state}
	return r.RenderBody(v)
}

func kindForPage(p doc.PageType) Kind {
	switch p {
	case doc.PageAbout:
		return KindAbout
	case doc.PageContact:
		return KindContact
	default:
		return KindHome
	}
}

// SectionView pairs a section id with the view rendering it.
type SectionView struct {
	*View
	ID string
}

// GridView is a product grid inside a page.
type GridView struct {
	*View
	Products []catalog.Product
}

type CardView struct {
	Base    string
	Product catalog.Product
}

var funcs = template.FuncMap{
	"page": func(d doc.Document, key string) map[string]any { return d.Page(key) },
	"str":  doc.StringValue,
	"list": func(v any) []any {
		items, _ := v.([]any)
		return items
	},
	"price": func(f float64) string { return "Rs. " + strconv.FormatFloat(f, 'f', 2, 64) },
	"section": func(v *View, id string) SectionView {
		return SectionView{View: v, ID: id}
	},
	"grid": func(v *View, products []catalog.Product) GridView {
		return GridView{View: v, Products: products}
	},
	"card": func(g GridView, p catalog.Product) CardView {
		return CardView{Base: g.Base(), Product: p}
	},
	"slug":    catalog.Slugify,
	"primary": func(p catalog.Product) string { return p.PrimaryImage() },
	"minPrice": func(p catalog.Product) float64 {
		return p.MinPrice()
	},
	"themeStyle": ThemeStyle,
	"color":      SafeColor,
}
