package weather

const absoluteZeroCelsius = 273.15

func KelvinToCelsius(k float64) float64 {
	return k - absoluteZeroCelsius
}

func KelvinToFahrenheit(k float64) float64 {
	return KelvinToCelsius(k)*9/5 + 32
}
