package app

import (
	"time"

	"github.com/google/uuid"
)

// Clock tells the time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ticket identifies one order request. A new one is built per lookup.
type Ticket struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"issued_at"`
}

// AppConfiguration is a configuration type: Clock is a singleton factory bean
// and Ticket a prototype one.
type AppConfiguration struct{}

func (AppConfiguration) Clock() Clock {
	return systemClock{}
}

func (AppConfiguration) Ticket(clock Clock) *Ticket {
	return &Ticket{ID: uuid.NewString(), IssuedAt: clock.Now()}
}
