package websocket

// Message defines the structure for websocket feed messages.
type Message struct {
	Action  string      `json:"action"` // e.g. "alert.created", "alert.closed"
	Payload interface{} `json:"payload"`
}
