package autosave

import "sync"

// outbox delivers sink callbacks in order on its own goroutine so a slow
// or re-entrant sink never stalls the state loop.
type outbox struct {
	mu   sync.Mutex
	q    []func()
	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newOutbox() *outbox {
	o := &outbox{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *outbox) push(fn func()) {
	o.mu.Lock()
	o.q = append(o.q, fn)
	o.mu.Unlock()
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *outbox) run() {
	defer close(o.done)
	for {
		select {
		case <-o.wake:
			o.drain()
		case <-o.quit:
			o.drain()
			return
		}
	}
}

func (o *outbox) drain() {
	for {
		o.mu.Lock()
		q := o.q
		o.q = nil
		o.mu.Unlock()
		if len(q) == 0 {
			return
		}
		for _, fn := range q {
			fn()
		}
	}
}

// close flushes pending callbacks and stops the goroutine.
func (o *outbox) close() {
	close(o.quit)
	<-o.done
}
