package agent

import (
	"github.com/dyluth/trove/pkg/blackboard"
	"github.com/dyluth/trove/pkg/geom"
)

// Reservation is an agent's optional claim on a discovered gem. The zero
// value holds nothing.
type Reservation struct {
	pos  geom.Vec3
	held bool
}

// NoReservation is the empty reservation.
func NoReservation() Reservation {
	return Reservation{}
}

// Reserved returns a reservation on the gem at pos.
func Reserved(pos geom.Vec3) Reservation {
	return Reservation{pos: pos, held: true}
}

// Position returns the reserved gem position and whether one is held.
func (r Reservation) Position() (geom.Vec3, bool) {
	return r.pos, r.held
}

func (r Reservation) Held() bool {
	return r.held
}

// reserve records a reservation on the board. Any reservation the agent
// already holds is released first: an agent never holds two.
func (a *Agent) reserve(pos geom.Vec3) {
	if held, ok := a.reservation.Position(); ok && held != pos {
		a.releaseReservation("replaced")
	}
	a.reservation = Reserved(pos)
	a.board.Reserved.Add(pos)
	a.emit(blackboard.EventGemReserved, pos, "")
}

// releaseReservation gives up the current reservation, if any.
func (a *Agent) releaseReservation(reason string) {
	pos, ok := a.reservation.Position()
	if !ok {
		return
	}
	a.board.Reserved.Remove(pos)
	a.reservation = NoReservation()
	a.emit(blackboard.EventGemReleased, pos, reason)
}
