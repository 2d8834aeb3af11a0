// Package landcover reclassifies land-cover code rasters into binary
// woody/non-woody rasters using a configurable class table.
package landcover

import (
	"fmt"
	"sort"
)

// WoodyCategory is the category name the classifier treats as woody.
const WoodyCategory = "woody"

// Category is one named bucket of a land-cover classification scheme.
type Category struct {
	Name        string `json:"name"`
	Codes       []int  `json:"codes"`
	Color       string `json:"color"`       // hex colour for rendering only
	Description string `json:"description"` // free text, not interpreted
}

// ClassMap is an ordered, non-overlapping partition of land-cover codes
// into named categories. Codes absent from every category are treated as
// unclassified and classify to non-woody (0). That default mirrors the
// upstream DEA processing chain; it is a policy choice, not a guarantee
// that unmapped codes are genuinely non-woody.
type ClassMap struct {
	Categories []Category `json:"categories"`
}

// InvalidClassMapError reports a code assigned to more than one category,
// which would make classification ambiguous.
type InvalidClassMapError struct {
	Code       int
	Categories []string
}

func (e *InvalidClassMapError) Error() string {
	return fmt.Sprintf("invalid class map: code %d appears in categories %v", e.Code, e.Categories)
}

// Validate checks that no code belongs to more than one category.
func (m *ClassMap) Validate() error {
	owners := make(map[int][]string)
	for _, cat := range m.Categories {
		for _, code := range cat.Codes {
			owners[code] = append(owners[code], cat.Name)
		}
	}
	var dup []int
	for code, names := range owners {
		if len(names) > 1 {
			dup = append(dup, code)
		}
	}
	if len(dup) == 0 {
		return nil
	}
	// Report the lowest duplicated code for a deterministic message.
	sort.Ints(dup)
	return &InvalidClassMapError{Code: dup[0], Categories: owners[dup[0]]}
}

// Category returns the named category and whether it exists.
func (m *ClassMap) Category(name string) (Category, bool) {
	for _, cat := range m.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// CodeSet returns the member codes of the named category as a set.
func (m *ClassMap) CodeSet(name string) map[int]bool {
	set := make(map[int]bool)
	if cat, ok := m.Category(name); ok {
		for _, code := range cat.Codes {
			set[code] = true
		}
	}
	return set
}

// DefaultDEAClassMap returns the class table for the DEA annual land cover
// product (ga_ls_landcover_class_cyear_2, level 3 codes) used for the
// eastern Australia clearing analysis.
func DefaultDEAClassMap() ClassMap {
	return ClassMap{Categories: []Category{
		{
			Name:        WoodyCategory,
			Codes:       []int{111, 112, 124},
			Color:       "#1b7837",
			Description: "cultivated and natural terrestrial/aquatic woody vegetation",
		},
		{
			Name:        "non-woody",
			Codes:       []int{214, 215, 216},
			Color:       "#dfc27d",
			Description: "herbaceous cover, artificial and natural bare surfaces",
		},
		{
			Name:        "water",
			Codes:       []int{220},
			Color:       "#2166ac",
			Description: "open water",
		},
	}}
}
