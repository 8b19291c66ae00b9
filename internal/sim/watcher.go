package sim

import "github.com/dyluth/trove/pkg/blackboard"

// Watcher detects the end of a run: the first time no gems are missing it
// fires its callback, and never again.
type Watcher struct {
	fired    bool
	onFinish func()
}

// NewWatcher creates a watcher that calls onFinish once.
func NewWatcher(onFinish func()) *Watcher {
	return &Watcher{onFinish: onFinish}
}

// Check reports whether the run is over, firing the callback on the first
// call that sees MissingGems at zero.
func (w *Watcher) Check(b *blackboard.Board) bool {
	if w.fired {
		return true
	}
	if b.MissingGems > 0 {
		return false
	}
	w.fired = true
	if w.onFinish != nil {
		w.onFinish()
	}
	return true
}

func (w *Watcher) Fired() bool {
	return w.fired
}
