package models

// Cake sizes offered for catalog cakes.
const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
)

// CatalogCake is one flavor in the fixed catalog with its price per size.
type CatalogCake struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Image  string             `json:"image"`
	Prices map[string]float64 `json:"prices"`
}

// Catalog is the full read-only registry. Prices are in KM.
var Catalog = []CatalogCake{
	{ID: "vanilla", Name: "Vanilla", Image: "/images/van.png",
		Prices: map[string]float64{SizeSmall: 35, SizeMedium: 45, SizeLarge: 60}},
	{ID: "chocolate", Name: "Chocolate", Image: "/images/cok.png",
		Prices: map[string]float64{SizeSmall: 38, SizeMedium: 48, SizeLarge: 65}},
	{ID: "strawberry", Name: "Strawberry", Image: "/images/jag.png",
		Prices: map[string]float64{SizeSmall: 37, SizeMedium: 47, SizeLarge: 63}},
	{ID: "vanilla-raspberry", Name: "Vanilla - Raspberry", Image: "/images/vanmal.png",
		Prices: map[string]float64{SizeSmall: 40, SizeMedium: 52, SizeLarge: 70}},
	{ID: "oreo", Name: "Oreo", Image: "/images/oreo.png",
		Prices: map[string]float64{SizeSmall: 42, SizeMedium: 55, SizeLarge: 75}},
	{ID: "coconut", Name: "Coconut", Image: "/images/kok.png",
		Prices: map[string]float64{SizeSmall: 41, SizeMedium: 54, SizeLarge: 74}},
	{ID: "choco-pistachio", Name: "Choco - Pistachio", Image: "/images/cokpis.png",
		Prices: map[string]float64{SizeSmall: 45, SizeMedium: 58, SizeLarge: 80}},
	{ID: "lemon", Name: "Lemon", Image: "/images/lim.png",
		Prices: map[string]float64{SizeSmall: 36, SizeMedium: 46, SizeLarge: 62}},
	{ID: "choco-hazelnut", Name: "Choco - Hazelnut", Image: "/images/cokljes.png",
		Prices: map[string]float64{SizeSmall: 44, SizeMedium: 57, SizeLarge: 78}},
}

// CatalogPrice looks up the fixed price for a flavor/size pair.
// Flavor matches either the catalog id or the display name.
func CatalogPrice(flavor, size string) (float64, bool) {
	for _, cake := range Catalog {
		if cake.ID == flavor || cake.Name == flavor {
			price, ok := cake.Prices[size]
			return price, ok
		}
	}
	return 0, false
}

// CustomSizePrices maps custom-cake headcount tiers to KM prices.
var CustomSizePrices = map[string]float64{
	"8–12 people (one tier)":  60,
	"14–18 people (one tier)": 80,
	"24–30 people (two tier)": 100,
}

// CustomSizePrice resolves the price for a custom-cake size tier.
func CustomSizePrice(size string) (float64, bool) {
	price, ok := CustomSizePrices[size]
	return price, ok
}

// FlavorAllowList is the only set of flavors an AI recommendation may
// contain. The prediction service filters model output against it.
var FlavorAllowList = []string{
	"Vanilla",
	"Chocolate",
	"Strawberry",
	"Vanilla - Raspberry",
	"Oreo",
	"Coconut",
	"Choco - Pistachio",
	"Lemon",
	"Choco - Hazelnut",
}

func IsAllowedFlavor(flavor string) bool {
	for _, f := range FlavorAllowList {
		if f == flavor {
			return true
		}
	}
	return false
}

// Fixed vocabularies for the flavor prediction inputs.
var (
	Seasons   = []string{"Spring", "Summer", "Autumn", "Winter"}
	Occasions = []string{"Birthday", "Wedding", "Party", "Other"}
	AgeGroups = []string{"Children", "Adults", "Elderly"}
)

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func IsSeason(v string) bool   { return contains(Seasons, v) }
func IsOccasion(v string) bool { return contains(Occasions, v) }
func IsAgeGroup(v string) bool { return contains(AgeGroups, v) }
