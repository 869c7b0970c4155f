package enums

import (
	"fmt"
	"strings"
)

// CatalogSort selects the ordering of catalog listings.
type CatalogSort string

const (
	CatalogSortName     CatalogSort = "name"
	CatalogSortPrice    CatalogSort = "price"
	CatalogSortNewest   CatalogSort = "newest"
	CatalogSortFeatured CatalogSort = "featured"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortName,
	CatalogSortPrice,
	CatalogSortNewest,
	CatalogSortFeatured,
}

// String implements fmt.Stringer.
func (s CatalogSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogSort.
func (s CatalogSort) IsValid() bool {
	for _, candidate := range validCatalogSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCatalogSort converts raw input into a CatalogSort. Empty input yields
// the default name ordering.
func ParseCatalogSort(value string) (CatalogSort, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return CatalogSortName, nil
	}
	for _, candidate := range validCatalogSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// String implements fmt.Stringer.
func (d SortDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known SortDirection.
func (d SortDirection) IsValid() bool {
	return d == SortDirectionAsc || d == SortDirectionDesc
}

// ParseSortDirection converts raw input into a SortDirection, defaulting to asc.
func ParseSortDirection(value string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(SortDirectionAsc):
		return SortDirectionAsc, nil
	case string(SortDirectionDesc):
		return SortDirectionDesc, nil
	}
	return "", fmt.Errorf("invalid direction %q", value)
}
