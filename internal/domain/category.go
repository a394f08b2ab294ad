package domain

import "strings"

// Category classifies the purpose of a visit.
type Category string

const (
	CategoryDelivery Category = "DELIVERY"
	CategoryPickup   Category = "PICKUP"
	CategoryImport   Category = "IMPORT"
	CategoryReturn   Category = "RETURN"
)

var categoryDescriptions = map[Category]string{
	CategoryDelivery: "Product delivery",
	CategoryPickup:   "Product pickup",
	CategoryImport:   "Import",
	CategoryReturn:   "Return",
}

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryDelivery, CategoryPickup, CategoryImport, CategoryReturn}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryDescriptions[c]
	return ok
}

// Description returns the human readable label.
func (c Category) Description() string {
	return categoryDescriptions[c]
}

// ParseCategory converts raw input into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", NewValidationError("category", "unknown category "+raw)
	}
	return c, nil
}
