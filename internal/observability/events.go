package observability

// EventEnvelope wraps chat domain events published to the broker.
type EventEnvelope struct {
	EventType  string         `json:"event_type"`
	EventName  string         `json:"event_name"`
	OccurredAt string         `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
