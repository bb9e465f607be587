package notify

import (
	"log"
	"runtime/debug"
	"sync"
	"time"

	"picotask-rush-backend/pkg/models"
)

// Dispatcher drains a bounded queue of notification deliveries on a fixed set
// of workers. Handlers enqueue and return immediately; a failed delivery is
// retried with backoff and finally logged and dropped, never propagating back
// to the originating request.
type Dispatcher struct {
	notifier Notifier
	queue    chan models.Notification

	maxAttempts int
	backoff     time.Duration

	waitGroup sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts workers goroutines draining the delivery queue.
func NewDispatcher(notifier Notifier, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{
		notifier:    notifier,
		queue:       make(chan models.Notification, 256),
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}

	for i := 0; i < workers; i++ {
		d.waitGroup.Add(1)
		go d.worker()
	}

	return d
}

// Enqueue schedules one delivery. A full queue drops the notification rather
// than blocking the request path.
func (d *Dispatcher) Enqueue(n models.Notification) {
	select {
	case d.queue <- n:
	default:
		log.Printf("notify: queue full, dropped notification for %s", n.RecipientEmail)
	}
}

func (d *Dispatcher) worker() {
	defer d.waitGroup.Done()

	for n := range d.queue {
		d.deliverWithRetry(n)
	}
}

func (d *Dispatcher) deliverWithRetry(n models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: worker recovered panic: %v\n%s", r, debug.Stack())
		}
	}()

	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err = d.notifier.Deliver(n); err == nil {
			return
		}
		if attempt < d.maxAttempts {
			time.Sleep(d.backoff * time.Duration(attempt))
		}
	}
	log.Printf("notify: delivery to %s failed after %d attempts: %v", n.RecipientEmail, d.maxAttempts, err)
}

// StopWait closes the queue and waits for queued deliveries to finish.
func (d *Dispatcher) StopWait() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.waitGroup.Wait()
}
