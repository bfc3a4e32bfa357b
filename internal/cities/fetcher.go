package cities

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/i474232898/cityweather/internal/upstream"
)

// DefaultBaseURL is the geonames dataset served by opendatasoft.
const DefaultBaseURL = "https://public.opendatasoft.com/api/explore/v2.1/catalog/datasets/geonames-all-cities-with-a-population-1000/records"

// Fetcher loads one page of the remote city collection.
type Fetcher interface {
	FetchPage(ctx context.Context, offset, pageSize int) ([]Record, error)
}

// OpenDataSoftFetcher implements Fetcher against the opendatasoft records API.
type OpenDataSoftFetcher struct {
	client          *upstream.Client
	baseURL         string
	includeTimezone bool
}

func NewOpenDataSoftFetcher(client *upstream.Client, baseURL string, includeTimezone bool) *OpenDataSoftFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenDataSoftFetcher{
		client:          client,
		baseURL:         baseURL,
		includeTimezone: includeTimezone,
	}
}

type recordsPayload struct {
	Results *[]struct {
		Name       *string `json:"name"`
		CouNameEn  *string `json:"cou_name_en"`
		Population *int64  `json:"population"`
		Timezone   *string `json:"timezone"`
	} `json:"results"`
}

// FetchPage performs exactly one upstream call for the page starting at offset.
func (f *OpenDataSoftFetcher) FetchPage(ctx context.Context, offset, pageSize int) ([]Record, error) {
	if offset < 0 || pageSize < 1 {
		return nil, fmt.Errorf("invalid page request offset=%d size=%d", offset, pageSize)
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(pageSize))
	values.Set("offset", strconv.Itoa(offset))
	if f.includeTimezone {
		values.Set("select", "name,cou_name_en,population,timezone")
	} else {
		values.Set("select", "name,cou_name_en,population")
	}

	var payload recordsPayload
	if err := f.client.GetJSON(ctx, f.baseURL, values, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return nil, upstream.NewMalformedError(f.client.Name(), "response has no results array", nil)
	}

	records := make([]Record, 0, len(*payload.Results))
	for i, r := range *payload.Results {
		if r.Name == nil {
			return nil, upstream.NewMalformedError(f.client.Name(), fmt.Sprintf("result %d has no name", offset+i), nil)
		}
		rec := Record{Name: *r.Name}
		if r.CouNameEn != nil {
			rec.Country = *r.CouNameEn
		}
		if r.Population != nil && *r.Population > 0 {
			rec.Population = *r.Population
		}
		if f.includeTimezone && r.Timezone != nil {
			rec.Timezone = *r.Timezone
		}
		records = append(records, rec)
	}
	return records, nil
}
