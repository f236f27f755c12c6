package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Dispatcher decouples request handling from the notification
// collaborator: events are queued and published by a single worker,
// and a publish failure never rolls back the booking that caused it.
type Dispatcher struct {
	publisher Publisher
	queue     chan Event
}

func NewDispatcher(publisher Publisher) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		queue:     make(chan Event, 100),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.publisher.Publish(ctx, ev); err != nil {
			log.Println("notify error:", err)
		}
		cancel()
	}
}

// Dispatch never blocks a request; when the queue is full the event is
// dropped rather than stalling the API.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	select {
	case d.queue <- ev:
	default:
		log.Println("notify queue full, dropping event")
	}
}
