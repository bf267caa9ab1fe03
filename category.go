package deviceinfo

import "fmt"

// Category names one diagnostic domain. The set is fixed.
type Category string

const (
	CategoryHardware Category = "hardware"
	CategorySystem   Category = "system"
	CategoryNetwork  Category = "network"
)

// Categories returns every category in collection order.
func Categories() []Category {
	return []Category{CategoryHardware, CategorySystem, CategoryNetwork}
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCategory, s)
}
