package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Category Tests
// ============================================================================

func TestActiveCategories_FiltersAndSorts(t *testing.T) {
	cats := []Category{
		{ID: 1, Name: "Clothing", DisplayOrder: 2, Active: true},
		{ID: 2, Name: "Retired", DisplayOrder: 0, Active: false},
		{ID: 3, Name: "Electronics", DisplayOrder: 1, Active: true},
		{ID: 4, Name: "Home", DisplayOrder: 2, Active: true},
	}

	got := ActiveCategories(cats)
	require.Len(t, got, 3)
	assert.Equal(t, "Electronics", got[0].Name)
	assert.Equal(t, "Clothing", got[1].Name, "ties keep backend order")
	assert.Equal(t, "Home", got[2].Name)
}

func TestActiveCategories_Empty(t *testing.T) {
	assert.Empty(t, ActiveCategories(nil))
}

// ============================================================================
// Filter Tests
// ============================================================================

func sampleFilters() []FilterDefinition {
	return []FilterDefinition{
		{
			ID: 1, Name: "brand", DisplayName: "Brand", DisplayOrder: 2, Active: true,
			Values: []FilterValue{
				{ID: 10, Value: "acme", DisplayValue: "Acme", DisplayOrder: 2, Active: true},
				{ID: 11, Value: "globex", DisplayValue: "Globex", DisplayOrder: 1, Active: true},
				{ID: 12, Value: "initech", DisplayValue: "Initech", DisplayOrder: 0, Active: false},
			},
		},
		{ID: 2, Name: "color", DisplayName: "Color", DisplayOrder: 1, Active: true},
		{ID: 3, Name: "legacy", DisplayOrder: 0, Active: false, Values: []FilterValue{{Value: "x", Active: true}}},
	}
}

func TestActiveFilters_FiltersAndSorts(t *testing.T) {
	got := ActiveFilters(sampleFilters())
	require.Len(t, got, 2)
	assert.Equal(t, "color", got[0].Name)
	assert.Equal(t, "brand", got[1].Name)
}

func TestFilterDefinition_ActiveValues(t *testing.T) {
	vals := sampleFilters()[0].ActiveValues()
	require.Len(t, vals, 2)
	assert.Equal(t, "globex", vals[0].Value)
	assert.Equal(t, "acme", vals[1].Value)
}

func TestFilterDefinition_HasValue(t *testing.T) {
	def := sampleFilters()[0]
	assert.True(t, def.HasValue("acme"))
	assert.False(t, def.HasValue("initech"), "inactive values are not offered")
	assert.False(t, def.HasValue("nope"))
}

func TestHasAvailableFilters(t *testing.T) {
	assert.True(t, HasAvailableFilters(sampleFilters()))

	onlyEmpty := []FilterDefinition{
		{Name: "color", Active: true},
		{Name: "legacy", Active: false, Values: []FilterValue{{Value: "x", Active: true}}},
		{Name: "size", Active: true, Values: []FilterValue{{Value: "xl", Active: false}}},
	}
	assert.False(t, HasAvailableFilters(onlyEmpty))
	assert.False(t, HasAvailableFilters(nil))
}

func TestLabels_FallBackToRawNames(t *testing.T) {
	assert.Equal(t, "brand", FilterDefinition{Name: "brand"}.Label())
	assert.Equal(t, "Brand", FilterDefinition{Name: "brand", DisplayName: "Brand"}.Label())
	assert.Equal(t, "acme", FilterValue{Value: "acme"}.Label())
}

// ============================================================================
// Image Tests
// ============================================================================

func TestSortImages_OrdersAndKeepsSinglePrimary(t *testing.T) {
	images := []ProductImage{
		{ID: 1, DisplayOrder: 3, IsPrimary: true},
		{ID: 2, DisplayOrder: 1},
		{ID: 3, DisplayOrder: 2, IsPrimary: true},
	}

	got := SortImages(images)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, got[1].IsPrimary)
	assert.False(t, got[2].IsPrimary)
	assert.True(t, images[0].IsPrimary, "input is not mutated")
}

func TestPrimaryImage(t *testing.T) {
	assert.Equal(t, -1, PrimaryImage(nil))
	assert.Equal(t, 0, PrimaryImage([]ProductImage{{ID: 1}, {ID: 2}}))
	assert.Equal(t, 1, PrimaryImage([]ProductImage{{ID: 1}, {ID: 2, IsPrimary: true}}))
}

// ============================================================================
// Product Tests
// ============================================================================

func TestProduct_DisplayImageURL(t *testing.T) {
	withImage := Product{Category: "Electronics", PrimaryImageURL: "/uploads/1.jpg"}
	assert.Equal(t, "/uploads/1.jpg", withImage.DisplayImageURL())

	noImage := Product{Category: "Electronics"}
	assert.Equal(t, PlaceholderImage("electronics"), noImage.DisplayImageURL())
	assert.NotEqual(t, DefaultPlaceholderImage, noImage.DisplayImageURL())

	unknown := Product{Category: "Garden"}
	assert.Equal(t, DefaultPlaceholderImage, unknown.DisplayImageURL())
}

func TestProduct_Margin(t *testing.T) {
	_, ok := Product{Price: 10}.Margin()
	assert.False(t, ok)

	cost := 6.5
	m, ok := Product{Price: 10, CostPrice: &cost}.Margin()
	assert.True(t, ok)
	assert.InDelta(t, 3.5, m, 1e-9)
}

// ============================================================================
// Role Tests
// ============================================================================

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"ROLE_ADMIN": RoleAdmin,
		"ROLE_OWNER": RoleOwner,
		"ROLE_USER":  RoleUser,
		"admin":      RoleAdmin,
		" OWNER ":    RoleOwner,
		"":           RoleUser,
		"superuser":  RoleUser,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseRole(in), "ParseRole(%q)", in)
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("ROOT").IsValid())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.FullName())
}

func TestProfile_Addresses(t *testing.T) {
	p := Profile{Address1City: "Paris", Address2City: "Lyon", Address2Country: "FR"}
	assert.Equal(t, "Paris", p.PrimaryAddress().City)
	assert.Equal(t, Address{City: "Lyon", Country: "FR"}, p.SecondaryAddress())
}

func TestRole_UnmarshalJSON(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"email":"a@b.c","role":"ROLE_OWNER","enabled":true}`), &u))
	assert.Equal(t, RoleOwner, u.Role)
	assert.Equal(t, int64(7), u.ID)

	require.Error(t, json.Unmarshal([]byte(`{"role":5}`), &u))
}

func TestUser_ProfileFieldsAreFlat(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"address1City":"Paris","idDocument1Filename":"passport.pdf"}`), &u))
	assert.Equal(t, "Paris", u.Address1City)
	assert.Equal(t, "passport.pdf", u.IDDocument1Filename)
}
