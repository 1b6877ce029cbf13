package catalog

import (
	"math"
	"strconv"
	"strings"
)

// Fields a product may use to list its subcategories.
var subcategoryFields = []string{"productSubCategories", "productSubCategory", "subCategory", "subcategory"}

// Keys tried, in order, when a category reference is an embedded object.
var categoryObjectKeys = []string{"_id", "name", "title", "categoryName"}

// NormalizeCategory converts one raw category record.
func NormalizeCategory(raw map[string]any) (Category, bool) {
	c := Category{
		ID:    firstString(raw, "_id", "id"),
		Name:  firstString(raw, "name", "categoryName", "title"),
		Image: imageURL(raw["image"]),
	}
	return c, c.ID != "" && c.Name != ""
}

// NormalizeCategories converts a raw category list, dropping unusable records.
func NormalizeCategories(items []any) []Category {
	out := make([]Category, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if c, ok := NormalizeCategory(m); ok {
			out = append(out, c)
		}
	}
	return out
}

// NormalizeSubcategory converts one raw subcategory. category_id may be a
// plain id or an embedded {_id, name} object.
func NormalizeSubcategory(raw map[string]any) (Subcategory, bool) {
	s := Subcategory{
		ID:         firstString(raw, "_id", "id"),
		Name:       firstString(raw, "name", "subCategoryName", "title"),
		CategoryID: referenceID(raw["category_id"]),
	}
	if s.CategoryID == "" {
		s.CategoryID = referenceID(raw["categoryId"])
	}
	return s, s.ID != "" && s.Name != ""
}

func NormalizeSubcategories(items []any) []Subcategory {
	out := make([]Subcategory, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := NormalizeSubcategory(m); ok {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeProduct converts one raw product record into the canonical shape.
func NormalizeProduct(raw map[string]any) (Product, bool) {
	p := Product{
		ID:               firstString(raw, "_id", "id"),
		Name:             firstString(raw, "productName", "name", "title"),
		ShortDescription: firstString(raw, "shortDescription"),
		Description:      firstString(raw, "description", "longDescription"),
		Images:           imageList(raw["defaultImages"]),
		Variants:         normalizeVariants(raw["variants"]),
		CategoryRef:      categoryReference(raw["productCategory"]),
		SubcategoryIDs:   subcategoryMembership(raw),
	}
	return p, p.ID != ""
}

func NormalizeProducts(items []any) []Product {
	out := make([]Product, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if p, ok := NormalizeProduct(m); ok {
			out = append(out, p)
		}
	}
	return out
}

// Linkage classifies the product's category reference: a key of the map or
// an object-id-shaped string is an identifier, anything else is a label.
func (p Product) Linkage(categories CategoryMap) Linkage {
	ref := strings.TrimSpace(p.CategoryRef)
	switch {
	case ref == "":
		return Linkage{}
	case categories[ref] != "":
		return Linkage{ID: ref}
	case IsObjectID(ref):
		return Linkage{ID: ref}
	default:
		return Linkage{Label: ref}
	}
}

// InSubcategory reports whether the product lists the subcategory by id or
// by a value whose slug matches the subcategory name.
func (p Product) InSubcategory(sub Subcategory) bool {
	nameSlug := Slugify(sub.Name)
	for _, id := range p.SubcategoryIDs {
		if id == sub.ID {
			return true
		}
		if nameSlug != "" && Slugify(id) == nameSlug {
			return true
		}
	}
	return false
}

func categoryReference(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, key := range categoryObjectKeys {
			if s := strings.TrimSpace(stringOf(t[key])); s != "" {
				return s
			}
		}
	}
	return ""
}

// referenceID reduces a string-or-object reference to its identifier.
func referenceID(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return strings.TrimSpace(firstString(t, "_id", "id"))
	}
	return ""
}

func subcategoryMembership(raw map[string]any) []string {
	ids := []string{}
	seen := map[string]bool{}
	add := func(v any) {
		id := referenceID(v)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, field := range subcategoryFields {
		switch t := raw[field].(type) {
		case []any:
			for _, item := range t {
				add(item)
			}
		case string, map[string]any:
			add(t)
		}
	}
	return ids
}

func normalizeVariants(v any) []Variant {
	items, ok := v.([]any)
	if !ok {
		return []Variant{}
	}
	out := make([]Variant, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		variant := Variant{
			ID:     firstString(m, "_id", "id"),
			Name:   firstString(m, "variantName", "name", "title"),
			Images: imageList(m["images"]),
		}
		if price, ok := numeric(m["finalPrice"]); ok {
			variant.FinalPrice = &price
		}
		if stock, ok := numeric(m["stock"]); ok {
			variant.Stock = int(stock)
		}
		out = append(out, variant)
	}
	return out
}

func imageList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := imageURL(v); s != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := imageURL(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return firstString(t, "url", "secure_url", "src")
	}
	return ""
}

// numeric accepts JSON numbers and numeric strings.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, finite(f)
	}
	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(stringOf(m[key])); s != "" {
			return s
		}
	}
	return ""
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
