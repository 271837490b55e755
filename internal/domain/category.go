package domain

import "strings"

// Category is the fixed editorial taxonomy. Unmapped upstream categories
// always land in CategoryOther.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategoryCrypto   Category = "crypto"
	CategorySports   Category = "sports"
	CategoryTech     Category = "tech"
	CategoryOther    Category = "other"
)

// Categories lists the taxonomy in display order.
var Categories = []Category{
	CategoryPolitics,
	CategoryCrypto,
	CategorySports,
	CategoryTech,
	CategoryOther,
}

// ValidCategory reports whether s is one of the taxonomy values.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryPolitics, CategoryCrypto, CategorySports, CategoryTech, CategoryOther:
		return true
	}
	return false
}

// categoryMapping maps lower-cased upstream category/group labels to the
// taxonomy.
var categoryMapping = map[string]Category{
	"politics":       CategoryPolitics,
	"us-politics":    CategoryPolitics,
	"us politics":    CategoryPolitics,
	"world-politics": CategoryPolitics,
	"elections":      CategoryPolitics,
	"geopolitics":    CategoryPolitics,
	"crypto":         CategoryCrypto,
	"cryptocurrency": CategoryCrypto,
	"bitcoin":        CategoryCrypto,
	"ethereum":       CategoryCrypto,
	"defi":           CategoryCrypto,
	"nft":            CategoryCrypto,
	"sports":         CategorySports,
	"nfl":            CategorySports,
	"nba":            CategorySports,
	"mlb":            CategorySports,
	"soccer":         CategorySports,
	"football":       CategorySports,
	"mma":            CategorySports,
	"tech":           CategoryTech,
	"technology":     CategoryTech,
	"ai":             CategoryTech,
	"science":        CategoryTech,
	"space":          CategoryTech,
	"pop culture":    CategoryOther,
	"entertainment":  CategoryOther,
	"culture":        CategoryOther,
	"business":       CategoryOther,
	"finance":        CategoryOther,
	"weather":        CategoryOther,
}

// MapCategory maps a raw upstream category label to the taxonomy. Lookup is
// case-insensitive and whitespace-trimmed; anything unknown (or empty) maps
// to CategoryOther.
func MapCategory(raw string) Category {
	if raw == "" {
		return CategoryOther
	}
	if c, ok := categoryMapping[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return CategoryOther
}
