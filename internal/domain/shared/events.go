// Package shared holds building blocks common to all FoodTrack aggregates.
package shared

import "time"

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventHandler handles domain events
type EventHandler func(event DomainEvent) error

// AggregateRoot is embedded by aggregates that record domain events.
// Events stay pending until the application layer pulls and publishes them.
type AggregateRoot struct {
	events []DomainEvent
}

// Record adds a domain event to be published
func (a *AggregateRoot) Record(event DomainEvent) {
	a.events = append(a.events, event)
}

// PullEvents returns and clears pending domain events
func (a *AggregateRoot) PullEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}
