// Package queue moves booking events between the outbox and RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
)

const contentTypeJSON = "application/json"

// Encode serializes an event as the message body.
func Encode(event *domain.BookingEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal booking event: %w", err)
	}
	return body, nil
}

// Decode parses a message body. Events without an id cannot be deduplicated and are rejected.
func Decode(body []byte) (*domain.BookingEvent, error) {
	var event domain.BookingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("unmarshal booking event: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("booking event has no id")
	}
	return &event, nil
}
