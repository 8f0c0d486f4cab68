// Package availability answers which slots of a lot's fixed zone grid are free
// for a time window.
package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedSlot = errors.New("malformed slot identifier")

// Grid is the fixed set of addressable slots of a lot: every zone label
// combined with indexes 1..PerZone, e.g. "A1".."A10".
type Grid struct {
	Zones   []string
	PerZone int
}

func DefaultGrid() Grid {
	return Grid{Zones: []string{"A", "B"}, PerZone: 10}
}

// Slots enumerates the grid zone by zone.
func (g Grid) Slots() []string {
	out := make([]string, 0, len(g.Zones)*g.PerZone)
	for _, z := range g.Zones {
		for i := 1; i <= g.PerZone; i++ {
			out = append(out, SlotID(z, i))
		}
	}
	return out
}

func (g Grid) Contains(slot string) bool {
	zone, idx, err := ParseSlot(slot)
	if err != nil || idx > g.PerZone {
		return false
	}
	for _, z := range g.Zones {
		if z == zone {
			return true
		}
	}
	return false
}

func SlotID(zone string, index int) string {
	return zone + strconv.Itoa(index)
}

// ParseSlot splits "B7" into ("B", 7). Zones are one or more upper-case
// letters followed by a positive index.
func ParseSlot(slot string) (string, int, error) {
	slot = strings.TrimSpace(slot)
	i := 0
	for i < len(slot) && slot[i] >= 'A' && slot[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(slot) {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedSlot, slot)
	}
	idx, err := strconv.Atoi(slot[i:])
	if err != nil || idx < 1 || slot[i] == '0' {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedSlot, slot)
	}
	return slot[:i], idx, nil
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start time.Time, hours int) Window {
	return Window{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}
}

// Overlaps is true iff s1 < e2 and s2 < e1, so back-to-back windows that
// share a boundary do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Occupant is an existing booking as seen by the index. Only pending and
// confirmed bookings should be passed as Active.
type Occupant struct {
	SlotID string
	Window Window
	Active bool
}

func (o Occupant) blocks(slot string, w Window) bool {
	return o.Active && o.SlotID != "" && o.SlotID == slot && o.Window.Overlaps(w)
}

func IsFree(slot string, w Window, occupants []Occupant) bool {
	for _, o := range occupants {
		if o.blocks(slot, w) {
			return false
		}
	}
	return true
}

// FreeSlots returns the grid slots not held by any active occupant during w,
// in grid order.
func FreeSlots(g Grid, w Window, occupants []Occupant) []string {
	taken := make(map[string]bool)
	for _, o := range occupants {
		if o.Active && o.SlotID != "" && o.Window.Overlaps(w) {
			taken[o.SlotID] = true
		}
	}
	free := make([]string, 0, len(g.Zones)*g.PerZone)
	for _, s := range g.Slots() {
		if !taken[s] {
			free = append(free, s)
		}
	}
	return free
}
