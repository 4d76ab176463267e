package autosave

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// debouncer runs fire after delay of quiet. Every trigger supersedes the
// previous one; a superseded timer that still fires carries a stale
// generation and is ignored by the owner. Only the state loop calls
// trigger, cancel and current.
type debouncer struct {
	clock clockwork.Clock
	delay time.Duration
	fire  func(gen uint64)
	gen   uint64
	timer clockwork.Timer
}

func newDebouncer(clock clockwork.Clock, delay time.Duration, fire func(gen uint64)) *debouncer {
	return &debouncer{clock: clock, delay: delay, fire: fire}
}

func (d *debouncer) trigger() {
	d.stop()
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *debouncer) cancel() {
	d.stop()
	d.gen++
}

func (d *debouncer) current(gen uint64) bool { return gen == d.gen }

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
