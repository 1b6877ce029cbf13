// Package catalog holds the storefront's view of categories, subcategories
// and products, normalized from the backend's loosely shaped JSON, plus the
// slug/id resolution used by category and subcategory pages.
package catalog

type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// CategoryMap maps category id to display name.
type CategoryMap map[string]string

type Subcategory struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type Variant struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	FinalPrice *float64 `json:"finalPrice,omitempty"`
	Stock      int      `json:"stock"`
	Images     []string `json:"images,omitempty"`
}

// Product is the canonical product shape. CategoryRef keeps the single
// category reference extracted from whatever shape the backend sent; it is
// classified against a CategoryMap by Linkage.
type Product struct {
	ID               string    `json:"_id"`
	Name             string    `json:"productName"`
	ShortDescription string    `json:"shortDescription"`
	Description      string    `json:"description,omitempty"`
	Images           []string  `json:"defaultImages"`
	Variants         []Variant `json:"variants"`
	CategoryRef      string    `json:"categoryRef,omitempty"`
	SubcategoryIDs   []string  `json:"subcategoryIds"`
}

// Linkage is a product's category reference after classification. Exactly
// one of ID or Label is set for a non-empty reference.
type Linkage struct {
	ID    string
	Label string
}

// Catalog is the live commerce data a storefront page renders against.
type Catalog struct {
	Categories    []Category    `json:"categories"`
	Map           CategoryMap   `json:"categoryMap"`
	Subcategories []Subcategory `json:"subcategories"`
	Products      []Product     `json:"products"`
}

// NewCatalog builds the category map and keeps the lists as given.
func NewCatalog(categories []Category, subcategories []Subcategory, products []Product) Catalog {
	if categories == nil {
		categories = []Category{}
	}
	if subcategories == nil {
		subcategories = []Subcategory{}
	}
	if products == nil {
		products = []Product{}
	}
	return Catalog{
		Categories:    categories,
		Map:           BuildCategoryMap(categories),
		Subcategories: subcategories,
		Products:      products,
	}
}

// BuildCategoryMap indexes categories by id. Entries without an id or name
// are skipped so map values are never empty.
func BuildCategoryMap(categories []Category) CategoryMap {
	m := make(CategoryMap, len(categories))
	for _, c := range categories {
		if c.ID == "" || c.Name == "" {
			continue
		}
		m[c.ID] = c.Name
	}
	return m
}

// FindProduct returns the product with the given id.
func FindProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// PrimaryImage returns the first default image, falling back to the first
// variant image.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	for _, v := range p.Variants {
		if len(v.Images) > 0 {
			return v.Images[0]
		}
	}
	return ""
}

// MinPrice is the lowest variant finalPrice of the product.
func (p Product) MinPrice() float64 {
	return MinPrice(p.Variants)
}
