package announcer

import "time"

type schedulerState uint8

const (
	schedulerIdle = schedulerState(iota)
	schedulerPending
)

type stopper interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// scheduler coalesces bursts of view changes into one refresh which happens
// delay after the last change. It is only touched by the loop of the Engine;
// the timer itself just reports the generation it was armed with through fire.
type scheduler struct {
	delay     time.Duration
	afterFunc func(time.Duration, func()) stopper
	fire      func(generation uint64)

	state      schedulerState
	generation uint64
	timer      stopper
}

func (this *scheduler) arm() {
	this.stop()
	this.generation++
	this.state = schedulerPending
	generation := this.generation
	this.timer = this.afterFunc(this.delay, func() {
		this.fire(generation)
	})
}

// fired reports whether the timer of the given generation is still the one
// which is expected. Only then the refresh has to happen.
func (this *scheduler) fired(generation uint64) bool {
	if this.state != schedulerPending || generation != this.generation {
		return false
	}
	this.state = schedulerIdle
	this.timer = nil
	return true
}

func (this *scheduler) cancel() {
	this.stop()
	this.generation++
	this.state = schedulerIdle
}

func (this *scheduler) pending() bool {
	return this.state == schedulerPending
}

func (this *scheduler) stop() {
	if v := this.timer; v != nil {
		v.Stop()
		this.timer = nil
	}
}
