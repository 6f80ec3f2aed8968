package ui

import (
	"time"

	"deckforge/internal/eventbus"
)

// EventMsg wraps a domain event forwarded from the bus into the program.
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg drives the spinner and other time-based redraws.
type tickMsg time.Time

// clearStatusMsg clears the status message with the given sequence
// number, so a delayed clear cannot wipe a newer message.
type clearStatusMsg struct {
	seq int
}

// importDoneMsg reports an asynchronous import's failure. Success is
// announced through ImportCompletedEvent instead.
type importDoneMsg struct {
	err error
}

// pagerDoneMsg reports that the external pager returned the terminal.
type pagerDoneMsg struct {
	err error
}
