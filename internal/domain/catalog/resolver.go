package catalog

import (
	"sort"
	"strings"
)

// CategoryResolution is the outcome of resolving a category page input.
// Found is false for unknown inputs; that is a valid page state with the
// literal label and no products.
type CategoryResolution struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Found    bool      `json:"found"`
	Products []Product `json:"products"`
}

type SubcategoryResolution struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	CategoryID string    `json:"categoryId"`
	Found      bool      `json:"found"`
	Products   []Product `json:"products"`
	// Siblings are the subcategories sharing the same parent, this one included.
	Siblings []Subcategory `json:"siblings"`
}

// ResolveCategory resolves a slug or id against the category map and filters
// products linked to the result. An exact map key wins, then a slug match on
// the display names, then the not-found state.
func ResolveCategory(input string, categories CategoryMap, products []Product) CategoryResolution {
	input = strings.TrimSpace(input)
	id, name, found := lookupCategory(input, categories)
	if !found {
		return CategoryResolution{Label: Unslug(input), Products: []Product{}}
	}
	return CategoryResolution{
		ID:       id,
		Label:    name,
		Found:    true,
		Products: ProductsInCategory(id, categories, products),
	}
}

func lookupCategory(input string, categories CategoryMap) (string, string, bool) {
	if input == "" {
		return "", "", false
	}
	if name, ok := categories[input]; ok {
		return input, name, true
	}
	if IsObjectID(input) {
		// object ids are matched case-insensitively against map keys
		for id, name := range categories {
			if strings.EqualFold(id, input) {
				return id, name, true
			}
		}
	}
	want := Slugify(input)
	if want == "" {
		return "", "", false
	}
	// sorted ids keep duplicate display names deterministic
	for _, id := range sortedKeys(categories) {
		if Slugify(categories[id]) == want {
			return id, categories[id], true
		}
	}
	return "", "", false
}

// ProductsInCategory keeps products whose linkage resolves to categoryID,
// either by identifier or by a label whose slug matches the category name.
func ProductsInCategory(categoryID string, categories CategoryMap, products []Product) []Product {
	out := []Product{}
	nameSlug := Slugify(categories[categoryID])
	for _, p := range products {
		link := p.Linkage(categories)
		switch {
		case link.ID != "":
			if link.ID == categoryID {
				out = append(out, p)
			}
		case link.Label != "":
			if nameSlug != "" && Slugify(link.Label) == nameSlug {
				out = append(out, p)
			}
		}
	}
	return out
}

// ResolveSubcategory mirrors ResolveCategory for subcategory pages.
func ResolveSubcategory(input string, subcategories []Subcategory, products []Product) SubcategoryResolution {
	input = strings.TrimSpace(input)
	sub, found := lookupSubcategory(input, subcategories)
	if !found {
		return SubcategoryResolution{Label: Unslug(input), Products: []Product{}, Siblings: []Subcategory{}}
	}
	out := []Product{}
	for _, p := range products {
		if p.InSubcategory(sub) {
			out = append(out, p)
		}
	}
	return SubcategoryResolution{
		ID:         sub.ID,
		Label:      sub.Name,
		CategoryID: sub.CategoryID,
		Found:      true,
		Products:   out,
		Siblings:   SubcategoriesOf(sub.CategoryID, subcategories),
	}
}

func lookupSubcategory(input string, subcategories []Subcategory) (Subcategory, bool) {
	if input == "" {
		return Subcategory{}, false
	}
	for _, s := range subcategories {
		if s.ID == input {
			return s, true
		}
	}
	want := Slugify(input)
	if want == "" {
		return Subcategory{}, false
	}
	for _, s := range subcategories {
		if Slugify(s.Name) == want {
			return s, true
		}
	}
	return Subcategory{}, false
}

// SubcategoriesOf returns the subcategories whose normalized parent is categoryID.
func SubcategoriesOf(categoryID string, subcategories []Subcategory) []Subcategory {
	out := []Subcategory{}
	if categoryID == "" {
		return out
	}
	for _, s := range subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out
}

// GroupSubcategories groups subcategories by parent category id. Entries
// without a parent are left out.
func GroupSubcategories(subcategories []Subcategory) map[string][]Subcategory {
	groups := make(map[string][]Subcategory)
	for _, s := range subcategories {
		if s.CategoryID == "" {
			continue
		}
		groups[s.CategoryID] = append(groups[s.CategoryID], s)
	}
	return groups
}

func sortedKeys(m CategoryMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
