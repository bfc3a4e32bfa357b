package cities

import (
	"fmt"
	"time"
)

// Options configures one list view.
type Options struct {
	PageSize           int           `validate:"gte=1,lte=100"`
	Debounce           time.Duration `validate:"gte=0"`
	Threshold          int           `validate:"gte=0"`
	ResetOnEmptySearch bool
	IncludeTimezone    bool
}

// Known list variants.
const (
	VariantTable = "table"
	VariantList  = "list"
)

// VariantOptions returns the preset for a named variant.
//
// "table" loads 10 rows per page as soon as the bottom is reached and
// refetches from the first page when the search box is cleared. "list"
// loads 20 rows per page with timezones, waits 2s after the last scroll
// event near the bottom and keeps the collection when the search is cleared.
func VariantOptions(name string) (Options, error) {
	switch name {
	case VariantTable, "":
		return Options{
			PageSize:           10,
			Debounce:           0,
			Threshold:          0,
			ResetOnEmptySearch: true,
		}, nil
	case VariantList:
		return Options{
			PageSize:        20,
			Debounce:        2 * time.Second,
			Threshold:       2,
			IncludeTimezone: true,
		}, nil
	default:
		return Options{}, fmt.Errorf("unknown list variant %q", name)
	}
}
