// Package delay implements the fixed-capacity lane-vector delay line at the
// heart of the feedback network.
package delay

import (
	"fmt"
	"math"

	"github.com/SolarLiner/nih-reverb/dsp/interp"
	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// Line is a circular delay line of lane vectors. Position 0 is the most
// recently pushed sample; positions count back in time. Capacity never
// changes after construction, and reads never allocate.
type Line struct {
	buffer []lane.Vector
	write  int
}

// New returns a delay line holding size zeroed lane vectors.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]lane.Vector, size)}, nil
}

// Len returns the line capacity in samples.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Push writes one sample, discarding the oldest.
func (d *Line) Push(v lane.Vector) {
	d.buffer[d.write] = v
	d.write++
	if d.write >= len(d.buffer) {
		d.write = 0
	}
}

// Tap reads all lanes at a fractional position using 4-point cubic
// interpolation. The position is wrapped into [0, Len) before indexing, and
// each of the four anchor points wraps independently; out-of-range requests
// never fail. Tap(k) for integer k returns the sample pushed k calls ago,
// exactly.
func (d *Line) Tap(pos float64) lane.Vector {
	pos = d.normalize(pos)
	i := int(math.Floor(pos))
	t := pos - float64(i)

	xm1 := d.at(i - 1)
	x0 := d.at(i)
	x1 := d.at(i + 1)
	x2 := d.at(i + 2)

	return interp.CatmullRomVec(t, xm1, x0, x1, x2)
}

// Get performs an independent fractional tap per lane: lane k is read at
// positions[k]. This lets each decorrelation lane read a different delay
// depth from the shared buffer.
func (d *Line) Get(positions lane.Vector) lane.Vector {
	var out lane.Vector
	for k := range lane.Width {
		pos := d.normalize(positions[k])
		i := int(math.Floor(pos))
		t := pos - float64(i)
		out[k] = interp.CatmullRom(t,
			d.atLane(i-1, k),
			d.atLane(i, k),
			d.atLane(i+1, k),
			d.atLane(i+2, k))
	}
	return out
}

// Reset zeroes all entries without reallocating.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = lane.Vector{}
	}
	d.write = 0
}

func (d *Line) normalize(pos float64) float64 {
	size := float64(len(d.buffer))
	pos = math.Mod(pos, size)
	if pos < 0 {
		pos += size
	}
	return pos
}

// at returns the sample pos pushes ago, wrapping pos into range.
func (d *Line) at(pos int) lane.Vector {
	return d.buffer[d.index(pos)]
}

func (d *Line) atLane(pos, k int) float64 {
	return d.buffer[d.index(pos)][k]
}

func (d *Line) index(pos int) int {
	size := len(d.buffer)
	idx := (d.write - 1 - pos) % size
	if idx < 0 {
		idx += size
	}
	return idx
}
