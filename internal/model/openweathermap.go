package model

// OpenWeatherMapResponse is the subset of the current-weather payload we read.
// Temp is a pointer so that an absent main.temp can be told apart from 0.
type OpenWeatherMapResponse struct {
	Name    string              `json:"name"`
	Main    OpenWeatherMapMain  `json:"main"`
	Weather []OpenWeatherMapSky `json:"weather"`
}

type OpenWeatherMapMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike float64  `json:"feels_like"`
	TempMin   float64  `json:"temp_min"`
	TempMax   float64  `json:"temp_max"`
	Pressure  int      `json:"pressure"`
	Humidity  int      `json:"humidity"`
}

type OpenWeatherMapSky struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
