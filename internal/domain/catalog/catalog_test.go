package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawList(t *testing.T, s string) []any {
	t.Helper()
	var items []any
	require.NoError(t, json.Unmarshal([]byte(s), &items))
	return items
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Men's Shoes!!":         "men-s-shoes",
		"  Hello   World  ":     "hello-world",
		"---already-slug---":    "already-slug",
		"ELECTRONICS & Gadgets": "electronics-gadgets",
		"":                      "",
		"!!!":                   "",
		"Ünïcode Tee":           "n-code-tee",
	}
	for in, want := range cases {
		got := Slugify(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, Slugify(got), "slugify must be idempotent for %q", in)
	}
}

func TestIsObjectID(t *testing.T) {
	assert.True(t, IsObjectID("507f1f77bcf86cd799439011"))
	assert.True(t, IsObjectID("507F1F77BCF86CD799439011"))
	assert.False(t, IsObjectID("507f1f77bcf86cd79943901"))
	assert.False(t, IsObjectID("507f1f77bcf86cd79943901z"))
	assert.False(t, IsObjectID("shoes"))
}

func TestResolveCategoryRoundTrip(t *testing.T) {
	products := NormalizeProducts(rawList(t, `[
		{"_id": "p1", "productCategory": "c1"},
		{"_id": "p2", "productCategory": {"name": "Electronics"}},
		{"_id": "p3", "productCategory": "electronics-typo"}
	]`))
	categories := CategoryMap{"c1": "Electronics"}

	bySlug := ResolveCategory("electronics", categories, products)
	assert.True(t, bySlug.Found)
	assert.Equal(t, "c1", bySlug.ID)
	assert.Equal(t, "Electronics", bySlug.Label)
	assert.Equal(t, []string{"p1", "p2"}, ids(bySlug.Products))

	byID := ResolveCategory("c1", categories, products)
	assert.Equal(t, []string{"p1", "p2"}, ids(byID.Products))
}

func TestResolveCategoryObjectIDAndNotFound(t *testing.T) {
	oid := "64b7f0c2a1b2c3d4e5f60718"
	categories := CategoryMap{oid: "Home & Garden"}
	products := NormalizeProducts(rawList(t, `[
		{"_id": "p1", "productCategory": {"_id": "64b7f0c2a1b2c3d4e5f60718", "name": "ignored"}},
		{"_id": "p2", "productCategory": "64b7f0c2a1b2c3d4e5f60719"},
		{"_id": "p3", "productCategory": "Home & Garden"}
	]`))

	res := ResolveCategory(oid, categories, products)
	assert.Equal(t, "Home & Garden", res.Label)
	assert.Equal(t, []string{"p1", "p3"}, ids(res.Products))

	res = ResolveCategory("home-garden", categories, products)
	assert.Equal(t, oid, res.ID)

	missing := ResolveCategory("winter-coats", categories, products)
	assert.False(t, missing.Found)
	assert.Equal(t, "winter coats", missing.Label)
	assert.NotNil(t, missing.Products)
	assert.Empty(t, missing.Products)
}

func TestLinkageClassification(t *testing.T) {
	categories := CategoryMap{"c1": "Shoes"}
	assert.Equal(t, Linkage{ID: "c1"}, Product{CategoryRef: "c1"}.Linkage(categories))
	assert.Equal(t, Linkage{ID: "507f1f77bcf86cd799439011"}, Product{CategoryRef: "507f1f77bcf86cd799439011"}.Linkage(categories))
	assert.Equal(t, Linkage{Label: "Sneakers"}, Product{CategoryRef: "Sneakers"}.Linkage(categories))
	assert.Equal(t, Linkage{}, Product{}.Linkage(categories))
}

func TestEmbeddedCategoryKeyPriority(t *testing.T) {
	products := NormalizeProducts(rawList(t, `[
		{"_id": "a", "productCategory": {"title": "T", "categoryName": "C"}},
		{"_id": "b", "productCategory": {"_id": "", "name": "N", "title": "T"}},
		{"_id": "c", "productCategory": {"categoryName": "C"}}
	]`))
	require.Len(t, products, 3)
	assert.Equal(t, "T", products[0].CategoryRef)
	assert.Equal(t, "N", products[1].CategoryRef)
	assert.Equal(t, "C", products[2].CategoryRef)
}

func TestSubcategoryNormalizationAndGrouping(t *testing.T) {
	subs := NormalizeSubcategories(rawList(t, `[
		{"_id": "s1", "name": "Running", "category_id": "c1"},
		{"_id": "s2", "name": "Hiking", "category_id": {"_id": "c1", "name": "Shoes"}},
		{"_id": "s3", "name": "Phones", "category_id": {"_id": "c2"}},
		{"_id": "s4", "name": "Orphan"},
		{"name": "no id"}
	]`))
	require.Len(t, subs, 4)

	assert.Equal(t, []string{"s1", "s2"}, subIDs(SubcategoriesOf("c1", subs)))
	assert.Equal(t, []string{"s3"}, subIDs(SubcategoriesOf("c2", subs)))
	assert.Empty(t, SubcategoriesOf("c3", subs))

	groups := GroupSubcategories(subs)
	assert.Len(t, groups, 2)
	assert.Len(t, groups["c1"], 2)
}

func TestSubcategoryMembershipFields(t *testing.T) {
	products := NormalizeProducts(rawList(t, `[
		{"_id": "p1", "productSubCategories": ["s1", {"_id": "s2"}]},
		{"_id": "p2", "productSubCategory": "s1"},
		{"_id": "p3", "subCategory": {"_id": "s3"}},
		{"_id": "p4", "subcategory": ["Running"]},
		{"_id": "p5", "productSubCategories": ["s1"], "subcategory": "s1"}
	]`))
	require.Len(t, products, 5)
	assert.Equal(t, []string{"s1", "s2"}, products[0].SubcategoryIDs)
	assert.Equal(t, []string{"s1"}, products[1].SubcategoryIDs)
	assert.Equal(t, []string{"s3"}, products[2].SubcategoryIDs)
	assert.Equal(t, []string{"s1"}, products[4].SubcategoryIDs)

	subs := []Subcategory{{ID: "s1", Name: "Running", CategoryID: "c1"}}
	res := ResolveSubcategory("running", subs, products)
	assert.True(t, res.Found)
	assert.Equal(t, "c1", res.CategoryID)
	assert.Equal(t, []string{"p1", "p2", "p4", "p5"}, ids(res.Products))
	assert.Equal(t, subIDs(SubcategoriesOf("c1", subs)), subIDs(res.Siblings))

	missing := ResolveSubcategory("trail-running", subs, products)
	assert.False(t, missing.Found)
	assert.Equal(t, "trail running", missing.Label)
	assert.Empty(t, missing.Siblings)
}

func TestMinPrice(t *testing.T) {
	products := NormalizeProducts(rawList(t, `[
		{"_id": "p", "variants": [{}, {"finalPrice": 10}, {"finalPrice": "x"}]},
		{"_id": "q", "variants": []},
		{"_id": "r", "variants": [{"finalPrice": "7.5"}, {"finalPrice": 9}]},
		{"_id": "s", "variants": [{"finalPrice": -3}]},
		{"_id": "u"}
	]`))
	require.Len(t, products, 5)
	assert.Equal(t, 10.0, products[0].MinPrice())
	assert.Equal(t, 0.0, products[1].MinPrice())
	assert.Equal(t, 7.5, products[2].MinPrice())
	assert.Equal(t, 0.0, products[3].MinPrice())
	assert.Equal(t, 0.0, products[4].MinPrice())
	assert.Equal(t, 0.0, MinPrice(nil))
}

func TestBuildCategoryMapSkipsEmptyValues(t *testing.T) {
	cats := NormalizeCategories(rawList(t, `[
		{"_id": "c1", "name": "Shoes"},
		{"_id": "c2", "name": ""},
		{"id": "c3", "categoryName": "Hats"},
		"junk"
	]`))
	m := BuildCategoryMap(cats)
	assert.Equal(t, CategoryMap{"c1": "Shoes", "c3": "Hats"}, m)
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func subIDs(subs []Subcategory) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}
