package model

// Response is the JSON envelope for every HTTP reply.
type Response struct {
	Data    any     `json:"data,omitempty"`
	Error   *string `json:"error,omitempty"`
	Message string  `json:"message"`
}

// ErrorResponse builds a Response with Message "Error" and the given detail.
func ErrorResponse(detail string) Response {
	return Response{Error: &detail, Message: "Error"}
}
