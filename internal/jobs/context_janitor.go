package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// StaleEvictor drops session contexts idle past their TTL
type StaleEvictor interface {
	EvictStale(now time.Time) int
}

// ContextJanitor periodically evicts idle session contexts
type ContextJanitor struct {
	contexts StaleEvictor
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewContextJanitor creates a janitor that sweeps every interval
func NewContextJanitor(contexts StaleEvictor, interval time.Duration) *ContextJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ContextJanitor{
		contexts: contexts,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the sweep loop; it stops when ctx ends or Stop is called
func (j *ContextJanitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.isRunning {
		log.Println("Context janitor already running")
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.isRunning = true
	log.Printf("Starting context janitor (every %v)", j.interval)

	go j.run(ctx, j.done)
}

// Stop halts the sweep loop and waits for it to exit
func (j *ContextJanitor) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	log.Println("Stopping context janitor...")
	cancel()
	<-done
}

// Sweep runs one eviction pass
func (j *ContextJanitor) Sweep() int {
	return j.contexts.EvictStale(j.now())
}

func (j *ContextJanitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}
