package midi

// BeatStatus is the result of one SimpleBeat.Update call (C9).
type BeatStatus int

const (
	RestBeat BeatStatus = iota
	WeakBeat
	StrongBeat
)

// SimpleBeat is a single-beat timer advancing by microseconds, emitting
// strong/weak beat transitions within a meter of N beats per bar (C9).
// Position may start negative during a defer lead-in.
type SimpleBeat struct {
	position    int64
	meterLength int64
	beatsPerBar int
	beatIndex   int
	firstFire   bool
	deferAmount int64
}

// NewSimpleBeat returns an oscillator with no meter configured; Update
// returns RestBeat until Set is called.
func NewSimpleBeat() *SimpleBeat {
	return &SimpleBeat{}
}

// Update advances position by delta microseconds and returns the beat
// transition crossed, if any (§4.9).
func (b *SimpleBeat) Update(delta int64) BeatStatus {
	b.position += delta

	if b.position <= 0 || b.meterLength <= 0 {
		return RestBeat
	}

	if b.position >= b.meterLength || b.firstFire {
		b.firstFire = false
		prevIndex := b.beatIndex
		if b.meterLength > 0 {
			b.position %= b.meterLength
		}
		if b.beatsPerBar > 0 {
			b.beatIndex = (b.beatIndex + 1) % b.beatsPerBar
		}
		if prevIndex == 0 {
			return StrongBeat
		}
		return WeakBeat
	}

	return RestBeat
}

// Set updates the oscillator's cadence without disturbing its position.
func (b *SimpleBeat) Set(beatsPerBar int, meterLength int64) {
	b.beatsPerBar = beatsPerBar
	b.meterLength = meterLength
}

// SetPhase updates the cadence and snaps the oscillator to an explicit
// phase, used when syncing to song position (§4.9).
func (b *SimpleBeat) SetPhase(beatsPerBar int, meterLength int64, beatID int, position int64) {
	b.Set(beatsPerBar, meterLength)
	b.beatIndex = beatID
	b.position = position
}

// Reset returns the oscillator to position = -defer, beat index 0, with the
// first-fire latch armed so the next positive tick forces a StrongBeat.
func (b *SimpleBeat) Reset(deferAmount int64) {
	b.deferAmount = deferAmount
	b.position = -deferAmount
	b.beatIndex = 0
	b.firstFire = true
}

// Position returns the oscillator's current signed microsecond position.
func (b *SimpleBeat) Position() int64 {
	return b.position
}

// BeatIndex returns the current beat-within-bar index.
func (b *SimpleBeat) BeatIndex() int {
	return b.beatIndex
}

// MeterLength returns the configured microseconds-per-beat.
func (b *SimpleBeat) MeterLength() int64 {
	return b.meterLength
}

// Progress returns position as a fraction of meterLength, for callers
// animating within the current beat (e.g. the free-running light decay in
// metronome.go). Returns 0 if uninitialized.
func (b *SimpleBeat) Progress() float64 {
	if b.meterLength <= 0 {
		return 0
	}
	return float64(b.position) / float64(b.meterLength)
}
