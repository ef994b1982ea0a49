package model

// OutboundMessage is a single SMS to be handed to the messaging provider.
type OutboundMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Preview is what a notify run would send, without sending it.
type Preview struct {
	Reading WeatherReading `json:"reading"`
	Message string         `json:"message"`
}
