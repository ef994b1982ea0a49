package service

import (
	"strings"

	"github.com/fakhrymubarak/weather-text/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	greetingPrefix = "Good morning! The weather today is "
	coldAdvice     = "It's cold outside, so make sure to wear warm clothes and a jacket."
	chillyAdvice   = "It's a bit chilly, so you might want to wear a sweater or a light jacket."

	coldBelow   = 10.0
	chillyBelow = 20.0
)

// ComposeMessage builds the SMS body for a reading. The temperature only
// selects the advice clause and is never printed.
func ComposeMessage(r model.WeatherReading) string {
	var b strings.Builder
	b.WriteString(greetingPrefix)
	b.WriteString(cases.Lower(language.English).String(r.Description))
	b.WriteString(". ")

	switch {
	case r.Temperature < coldBelow:
		b.WriteString(coldAdvice)
	case r.Temperature < chillyBelow:
		b.WriteString(chillyAdvice)
	}
	return b.String()
}
