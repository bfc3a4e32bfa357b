package weather

import (
	"fmt"
	"strings"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Coordinates of the reported weather station.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapURL links to an OpenStreetMap view centred on c.
func (c Coordinates) MapURL(zoom int) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.4f&mlon=%.4f#map=%d/%.4f/%.4f",
		c.Lat, c.Lon, zoom, c.Lat, c.Lon)
}

// Detail is the current weather for one city as reported upstream.
// Temperature stays in Kelvin; conversion is left to the presentation layer.
type Detail struct {
	CityName          string      `json:"cityName"`
	CountryCode       string      `json:"countryCode"`
	TemperatureKelvin float64     `json:"temperatureKelvin"`
	HumidityPercent   float64     `json:"humidityPercent"`
	WindSpeedMps      float64     `json:"windSpeedMps"`
	Description       string      `json:"conditionDescription"`
	Condition         Condition   `json:"condition"`
	Coordinates       Coordinates `json:"coordinates"`
}

// Celsius returns the temperature in degrees Celsius.
func (d Detail) Celsius() float64 {
	return KelvinToCelsius(d.TemperatureKelvin)
}

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (d Detail) Fahrenheit() float64 {
	return KelvinToFahrenheit(d.TemperatureKelvin)
}

// CacheKey normalizes a city name for cache lookups.
func CacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
