package model

// WeatherReading is the parsed result of one weather fetch. Temperature is in
// whatever unit the provider returned.
type WeatherReading struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Cached      bool    `json:"cached"`
}
