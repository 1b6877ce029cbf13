// Package navigation composes the storefront chrome: the page entries, the
// category mega menu and the shopper utility links.
package navigation

import (
	"net/url"
	"sort"
	"strings"

	"github.com/AtRiskMedia/storefront-go/internal/domain/catalog"
	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
)

// EmptyMenuPlaceholder is shown for a category without subcategories.
const EmptyMenuPlaceholder = "No subcategories yet"

type EntryKind string

const (
	KindStatic  EntryKind = "static"
	KindCustom  EntryKind = "custom"
	KindUtility EntryKind = "utility"
)

type Entry struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Href   string    `json:"href"`
	Kind   EntryKind `json:"kind"`
	Active bool      `json:"active"`
}

type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

// MenuGroup is one category column of the mega menu.
type MenuGroup struct {
	CategoryID    string     `json:"categoryId"`
	Label         string     `json:"label"`
	Href          string     `json:"href"`
	Subcategories []MenuItem `json:"subcategories"`
	Placeholder   string     `json:"placeholder,omitempty"`
	Active        bool       `json:"active"`
}

// Empty reports whether the group renders the empty-state placeholder.
func (g MenuGroup) Empty() bool {
	return len(g.Subcategories) == 0
}

type Tree struct {
	Entries []Entry     `json:"entries"`
	Menu    []MenuGroup `json:"menu"`
	Utility []Entry     `json:"utility"`
}

type Input struct {
	VendorID      string
	Template      template.Document
	CategoryMap   catalog.CategoryMap
	Categories    []catalog.Category
	Subcategories []catalog.Subcategory
	// CustomPages overrides the template's custom_pages when non-nil.
	CustomPages []template.CustomPage
	ActivePage  string
	SignedIn    bool
}

// BasePath is the storefront root for a vendor.
func BasePath(vendorID string) string {
	return "/template/" + url.PathEscape(vendorID)
}

// Compose builds the navigation tree. Static entries are always present;
// custom pages follow unless explicitly unpublished.
func Compose(in Input) Tree {
	base := BasePath(in.VendorID)
	active := normalizePath(in.ActivePage)

	entries := []Entry{
		{Key: "home", Label: "Home", Href: base, Kind: KindStatic},
		{Key: "about", Label: pageLabel(in.Template, template.KeyAboutPage, "About"), Href: base + "/about", Kind: KindStatic},
		{Key: "contact", Label: pageLabel(in.Template, template.KeyContactPage, "Contact"), Href: base + "/contact", Kind: KindStatic},
	}

	pages := in.CustomPages
	if pages == nil {
		pages = in.Template.CustomPages()
	}
	for _, page := range pages {
		if !page.Published() {
			continue
		}
		slug := page.Slug
		if slug == "" {
			slug = catalog.Slugify(page.Title)
		}
		label := page.Title
		if label == "" {
			label = catalog.Unslug(slug)
		}
		entries = append(entries, Entry{
			Key:   "page:" + slug,
			Label: label,
			Href:  base + "/page/" + url.PathEscape(slug),
			Kind:  KindCustom,
		})
	}
	for i := range entries {
		entries[i].Active = normalizePath(entries[i].Href) == active
	}

	utility := []Entry{{Key: "cart", Label: "Cart", Href: base + "/cart", Kind: KindUtility}}
	if in.SignedIn {
		utility = append(utility, Entry{Key: "orders", Label: "Orders", Href: base + "/orders", Kind: KindUtility})
	} else {
		utility = append(utility, Entry{Key: "login", Label: "Sign in", Href: base + "/login", Kind: KindUtility})
	}
	for i := range utility {
		utility[i].Active = normalizePath(utility[i].Href) == active
	}

	return Tree{
		Entries: entries,
		Menu:    composeMenu(base, active, in),
		Utility: utility,
	}
}

// MenuFor returns the group for a category as an independent copy. Unknown
// categories get an empty-state group.
func (t Tree) MenuFor(categoryID string) MenuGroup {
	for _, g := range t.Menu {
		if g.CategoryID == categoryID {
			g.Subcategories = append([]MenuItem(nil), g.Subcategories...)
			return g
		}
	}
	return MenuGroup{CategoryID: categoryID, Subcategories: []MenuItem{}, Placeholder: EmptyMenuPlaceholder}
}

func composeMenu(base, active string, in Input) []MenuGroup {
	categories := in.Categories
	if len(categories) == 0 {
		categories = categoriesFromMap(in.CategoryMap)
	}
	groups := catalog.GroupSubcategories(in.Subcategories)

	menu := make([]MenuGroup, 0, len(categories))
	for _, c := range categories {
		name := c.Name
		if mapped := in.CategoryMap[c.ID]; mapped != "" {
			name = mapped
		}
		if c.ID == "" || name == "" {
			continue
		}
		group := MenuGroup{
			CategoryID:    c.ID,
			Label:         name,
			Href:          base + "/category/" + url.PathEscape(catalog.Slugify(name)),
			Subcategories: make([]MenuItem, 0, len(groups[c.ID])),
		}
		for _, sub := range groups[c.ID] {
			group.Subcategories = append(group.Subcategories, MenuItem{
				ID:    sub.ID,
				Label: sub.Name,
				Href:  base + "/subcategory/" + url.PathEscape(catalog.Slugify(sub.Name)),
			})
		}
		if group.Empty() {
			group.Placeholder = EmptyMenuPlaceholder
		}
		group.Active = normalizePath(group.Href) == active
		menu = append(menu, group)
	}
	return menu
}

func categoriesFromMap(m catalog.CategoryMap) []catalog.Category {
	out := make([]catalog.Category, 0, len(m))
	for id, name := range m {
		out = append(out, catalog.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func pageLabel(doc template.Document, key, fallback string) string {
	if doc.Components == nil {
		return fallback
	}
	if s := template.StringValue(doc.Page(key)["nav_label"]); s != "" {
		return s
	}
	return fallback
}

func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimRight(p, "/")
}
