package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/cityweather/internal/cities"
	"github.com/i474232898/cityweather/internal/upstream"
	"github.com/i474232898/cityweather/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// defaultLimit is used when /cities is called without a limit.
func RegisterRoutes(app *fiber.App, pages cities.Fetcher, defaultLimit int, service *weather.Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/cities", fiber.StatusFound)
	})

	app.Get("/cities", func(c *fiber.Ctx) error {
		var req citiesQuery
		if err := req.bind(c, defaultLimit); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := pages.FetchPage(c.UserContext(), req.Offset, req.Limit)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(fiber.Map{
			"records":    cities.Filter(records, req.Search),
			"search":     req.Search,
			"offset":     req.Offset,
			"limit":      req.Limit,
			"nextOffset": req.Offset + req.Limit,
			"hasMore":    len(records) == req.Limit,
		})
	})

	app.Get("/weather/:cityName", func(c *fiber.Ctx) error {
		// Params aliases the request buffer; the name outlives the request as a cache key.
		name, err := url.PathUnescape(utils.CopyString(c.Params("cityName")))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city name")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city name is required")
		}

		detail, err := service.GetWeather(c.UserContext(), name)
		if err != nil {
			return upstreamError(err)
		}

		return c.JSON(weatherResponse{
			Detail:                detail,
			TemperatureCelsius:    detail.Celsius(),
			TemperatureFahrenheit: detail.Fahrenheit(),
		})
	})
}

// citiesQuery holds query parameters for the city list endpoint.
type citiesQuery struct {
	Offset int `validate:"gte=0"`
	Limit  int `validate:"gte=1,lte=100"`
	Search string
}

func (q *citiesQuery) bind(c *fiber.Ctx, defaultLimit int) error {
	var err error
	if q.Offset, err = queryInt(c, "offset", 0); err != nil {
		return err
	}
	if q.Limit, err = queryInt(c, "limit", defaultLimit); err != nil {
		return err
	}
	q.Search = c.Query("q")
	return nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

type weatherResponse struct {
	weather.Detail
	TemperatureCelsius    float64 `json:"temperatureCelsius"`
	TemperatureFahrenheit float64 `json:"temperatureFahrenheit"`
}

// upstreamError maps a fetch failure to the HTTP status reported to clients.
func upstreamError(err error) error {
	if errors.Is(err, weather.ErrMissingAPIKey) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	if code, ok := upstream.StatusCode(err); ok && code == http.StatusNotFound {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	var fe *upstream.FetchError
	if errors.As(err, &fe) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return err
}
