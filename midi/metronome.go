package midi

import (
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// LightColor is the metronome's visual state machine output (C10).
type LightColor int

const (
	Black LightColor = iota
	Red
	Green
)

// decayTicks is the number of synced-update ticks a flashed light holds
// before decaying back to Black (§3 Metronome state).
const decayTicks = 12

// freeDecayProgress is the fraction-of-beat threshold used by the simpler
// free-only UpdateFree path to decay a flash back to Black. The original
// source uses a different rule here than the synced Update path (a 12-tick
// counter there vs. GetProgress() >= 0.25 here); both are preserved
// distinctly rather than unified, since they have different callers
// (synced transport vs. free-running practice mode) — see DESIGN.md.
const freeDecayProgress = 0.25

// Metronome composes four beat oscillators (audio/visual x free/synced),
// emits click events, and manages the knock-on-stick prelude, visual light
// state, pendulum value, and upcast-space animation helper (C10).
//
// Update ticks the free pair on every call, including while the synced pair
// drives output, so the free pair stays phase-aligned for a switch back to
// free-running. The synced pair is ticked only while syncMidi is set, and it
// is reset when syncing starts.
type Metronome struct {
	freeVisual *SimpleBeat
	freeAudio  *SimpleBeat
	syncVisual *SimpleBeat
	syncAudio  *SimpleBeat

	light        LightColor
	decayCounter int

	knockOnStick     bool
	knockOnStickUsec int64
	knockOnStickDone bool

	wasPlaying bool
	wasSyncing bool

	deferOffset int64

	lastBeatID int
	plusMinus  bool
}

// NewMetronome creates a metronome with all four oscillators unconfigured;
// call Init (or one of its overloads) before the first Update.
func NewMetronome() *Metronome {
	return &Metronome{
		freeVisual: NewSimpleBeat(),
		freeAudio:  NewSimpleBeat(),
		syncVisual: NewSimpleBeat(),
		syncAudio:  NewSimpleBeat(),
	}
}

// Init configures a fixed default 4/4, 120 BPM meter with the given defer
// offset (§4.10, `init(defer_microseconds)`).
func (m *Metronome) Init(deferMicros int64) {
	m.InitMeter(4, 4, 120, deferMicros)
}

// InitMeter configures a fixed meter and tempo (§4.10,
// `init(numerator, denominator, bpm, defer)`).
func (m *Metronome) InitMeter(numerator, denominator int, bpm float64, deferMicros int64) {
	m.deferOffset = deferMicros
	beatLen := int64(bpmToMicros(bpm)) * 4 / int64(denominator)
	m.freeVisual.Set(numerator, beatLen)
	m.freeAudio.Set(numerator, beatLen)
	m.syncVisual.Set(numerator, beatLen)
	m.syncAudio.Set(numerator, beatLen)
	m.freeVisual.Reset(deferMicros)
	m.freeAudio.Reset(0)
	m.syncVisual.Reset(deferMicros)
	m.syncAudio.Reset(0)
}

// InitFromSong pulls the meter from song at (song position + defer)
// (§4.10, `init(song)`).
func (m *Metronome) InitFromSong(song *Song, deferMicros int64) {
	m.deferOffset = deferMicros
	num, denom := song.MeterAt(song.Position() + deferMicros)
	tempo := song.TempoAt(song.Position() + deferMicros)
	beatLen := beatMicros(tempo, denom)
	m.freeVisual.Set(int(num), beatLen)
	m.freeAudio.Set(int(num), beatLen)
	m.syncVisual.Set(int(num), beatLen)
	m.syncAudio.Set(int(num), beatLen)
}

func (m *Metronome) reset() {
	m.freeVisual.Reset(m.deferOffset)
	m.freeAudio.Reset(0)
	m.syncVisual.Reset(m.deferOffset)
	m.syncAudio.Reset(0)
	m.light = Black
	m.decayCounter = 0
	m.knockOnStick = false
	m.knockOnStickUsec = 0
	m.knockOnStickDone = false
}

// beatMicros converts a tempo (microseconds-per-quarter-note) and a meter
// denominator into microseconds-per-beat: 4/denominator quarter notes.
func beatMicros(tempoMicros uint32, denominator uint8) int64 {
	if denominator == 0 {
		denominator = 4
	}
	return int64(tempoMicros) * 4 / int64(denominator)
}

func strongBeatEvents() []smf.Message {
	return []smf.Message{
		midi.NoteOff(9, gmCowbell),
		midi.NoteOff(9, gmOpenTriangle),
		midi.NoteOn(9, gmOpenTriangle, 0x7F),
	}
}

func weakBeatEvents() []smf.Message {
	return []smf.Message{
		midi.NoteOff(9, gmHighTom),
		midi.NoteOn(9, gmHighTom, 0x7F),
	}
}

func preludeBeatEvents() []smf.Message {
	return []smf.Message{
		midi.NoteOff(9, gmSideStick),
		midi.NoteOn(9, gmSideStick, 0x7F),
	}
}

func silenceEvents() []smf.Message {
	return []smf.Message{
		midi.NoteOff(9, gmSideStick),
		midi.NoteOff(9, gmOpenTriangle),
		midi.NoteOff(9, gmCowbell),
	}
}

func audioEventsFor(status BeatStatus) []smf.Message {
	switch status {
	case StrongBeat:
		return strongBeatEvents()
	case WeakBeat:
		return weakBeatEvents()
	default:
		return nil
	}
}

func lightFor(status BeatStatus) (LightColor, bool) {
	switch status {
	case StrongBeat:
		return Red, true
	case WeakBeat:
		return Green, true
	default:
		return Black, false
	}
}

// Update advances the metronome by delta microseconds against a loaded
// song and returns the click events to emit this tick, following the eight
// steps of §4.10.
func (m *Metronome) Update(delta int64, song *Song, play, syncMidi, prepareMeter bool) []smf.Message {
	if !play {
		if m.wasPlaying {
			m.reset()
			m.wasPlaying = false
			return silenceEvents()
		}
		m.wasPlaying = false
		return nil
	}

	startingSync := syncMidi && !m.wasSyncing
	if startingSync && !song.IsSongOver() {
		m.reset()
	}
	m.wasPlaying = true
	m.wasSyncing = syncMidi

	// knockOnStickDone latches once the prelude bar has been consumed, so a
	// caller that leaves prepareMeter set (the normal UI pattern: the toggle
	// stays on until the user releases it) gets exactly one prelude bar
	// rather than re-arming it every tick (mirrors the original's
	// non-resetting m_mPrepareMeterPosition counter).
	if prepareMeter && !m.knockOnStick && !m.knockOnStickDone {
		m.knockOnStick = true
		m.knockOnStickUsec = 0
	}

	visualNum, visualDenom := song.MeterAt(song.Position() + m.deferOffset)
	visualTempo := song.TempoAt(song.Position() + m.deferOffset)
	audioNum, audioDenom := song.MeterAt(song.Position())
	audioTempo := song.TempoAt(song.Position())

	visualBeatLen := beatMicros(visualTempo, visualDenom)
	audioBeatLen := beatMicros(audioTempo, audioDenom)

	m.freeVisual.Set(int(visualNum), visualBeatLen)
	m.freeAudio.Set(int(audioNum), audioBeatLen)
	m.syncVisual.Set(int(visualNum), visualBeatLen)
	m.syncAudio.Set(int(audioNum), audioBeatLen)

	freeVisualStatus := m.freeVisual.Update(delta)
	freeAudioStatus := m.freeAudio.Update(delta)

	if color, flash := lightFor(freeVisualStatus); flash {
		m.light = color
		m.decayCounter = decayTicks
	} else if m.decayCounter > 0 {
		m.decayCounter--
		if m.decayCounter == 0 {
			m.light = Black
		}
	}

	if !syncMidi {
		return audioEventsFor(freeAudioStatus)
	}

	syncDelta := delta
	var preludeEvents []smf.Message

	if m.knockOnStick {
		prevAccum := m.knockOnStickUsec
		m.knockOnStickUsec += delta
		barLength := audioBeatLen * int64(audioNum)

		if m.knockOnStickUsec < barLength {
			if audioBeatLen > 0 {
				prevBeats := prevAccum / audioBeatLen
				newBeats := m.knockOnStickUsec / audioBeatLen
				if newBeats > prevBeats {
					preludeEvents = preludeBeatEvents()
					m.light = Green
					m.decayCounter = decayTicks
				}
			}
			syncDelta = 0
		} else {
			syncDelta = m.knockOnStickUsec - barLength
			m.knockOnStick = false
			m.knockOnStickUsec = 0
			m.knockOnStickDone = true
		}
	}

	syncVisualStatus := m.syncVisual.Update(syncDelta)
	syncAudioStatus := m.syncAudio.Update(syncDelta)

	if color, flash := lightFor(syncVisualStatus); flash {
		m.light = color
		m.decayCounter = decayTicks
	}

	if preludeEvents != nil {
		return preludeEvents
	}

	prevBeatID := m.lastBeatID
	m.lastBeatID = m.syncAudio.BeatIndex()
	if prevBeatID != m.lastBeatID {
		m.plusMinus = !m.plusMinus
	}

	return audioEventsFor(syncAudioStatus)
}

// UpdateFree is the simpler free-running overload: no song, no sync, no
// knock-on-stick. It decays the light via Progress() >= freeDecayProgress
// instead of the synced path's tick counter (DESIGN.md decision #3).
func (m *Metronome) UpdateFree(delta int64, play bool) []smf.Message {
	if !play {
		if m.wasPlaying {
			m.reset()
			m.wasPlaying = false
			return silenceEvents()
		}
		return nil
	}
	m.wasPlaying = true

	status := m.freeAudio.Update(delta)
	m.freeVisual.Update(delta)

	if color, flash := lightFor(status); flash {
		m.light = color
	} else if m.freeAudio.Progress() >= freeDecayProgress {
		m.light = Black
	}

	return audioEventsFor(status)
}

// Light returns the metronome's current visual state.
func (m *Metronome) Light() LightColor {
	return m.light
}

// activeAudio returns the oscillator that should drive the pendulum and
// upcast-space helpers: the sync oscillator while syncing outside of
// knock-on-stick, otherwise the free oscillator (§4.10).
func (m *Metronome) activeAudio() *SimpleBeat {
	if m.wasSyncing && !m.knockOnStick {
		return m.syncAudio
	}
	return m.freeAudio
}

// MetronomeValue returns a [-1.0, +1.0] pendulum value derived from the
// active oscillator's position within the current beat (§4.10). The sign
// flips when the synced audio oscillator's beat index changes during an
// Update call with syncMidi set; while free-running (Update without
// syncMidi, or UpdateFree) the sign does not alternate.
func (m *Metronome) MetronomeValue() float64 {
	osc := m.activeAudio()
	half := float64(osc.MeterLength()) / 2
	if half == 0 {
		return 0
	}
	p := float64(osc.Position())
	value := (half - p) / half
	if m.plusMinus {
		value = -value
	}
	return value
}

// UpcastSpace returns a projectile-style displacement useful for animating
// a ball trajectory between beats (§4.10).
func (m *Metronome) UpcastSpace() float64 {
	osc := m.activeAudio()
	meterLength := float64(osc.MeterLength())
	if meterLength == 0 {
		return 0
	}
	half := meterLength / 2
	acceleration := 60 / (half * half)
	velocity := acceleration * half
	p := float64(osc.Position())
	return 0.5*acceleration*p*p - velocity*p
}
