package weather

import "github.com/i474232898/cityweather/internal/common"

// ConditionFromText classifies a free-text description such as
// "light intensity drizzle" or "scattered clouds".
func ConditionFromText(text string) Condition {
	switch {
	case text == "":
		return ConditionUnknown
	case common.ContainsAnyFold(text, "thunder", "storm", "squall", "tornado"):
		return ConditionStorm
	case common.ContainsAnyFold(text, "snow", "sleet", "blizzard"):
		return ConditionSnow
	case common.ContainsAnyFold(text, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.ContainsAnyFold(text, "mist", "fog", "haze", "smoke", "dust", "sand", "ash"):
		return ConditionMist
	case common.ContainsAnyFold(text, "cloud", "overcast"):
		return ConditionCloudy
	case common.ContainsAnyFold(text, "clear", "sunny"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}
