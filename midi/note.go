package midi

// Note is a paired note-on/note-off record derived from a Track (C4).
type Note struct {
	StartPulse uint32
	EndPulse   uint32
	NoteID     uint8
	Channel    uint8
	Velocity   uint8
	TrackID    int
	TrackName  string

	// BarID and BeatDuration are filled in once the bar/beat timeline (C6)
	// exists; both are -1/0 until then.
	BarID        int
	BeatDuration int64

	// UserState is free for host applications (e.g. hit/missed in a
	// rhythm game) and is never read or written by this package.
	UserState interface{}
}

type openNote struct {
	startPulse uint32
	channel    uint8
	velocity   uint8
}

// IsPercussionChannelForInstrument reports whether channel counts as
// percussion when discovering a track's instrument (C4). The original
// implementation treats channel 9 and channel 15 as percussion here; see
// DESIGN.md's channel-15 open-question decision.
func IsPercussionChannelForInstrument(channel uint8) bool {
	return channel == 9 || channel == 15
}

// IsDrumChannel reports whether channel is the standard General MIDI
// percussion channel. Unlike IsPercussionChannelForInstrument, the
// metronome's own output routing only ever treats channel 9 as percussion.
func IsDrumChannel(channel uint8) bool {
	return channel == 9
}

// pairNotes walks a track's events in order, folding note-on/note-off pairs
// into Note records (C4). Unmatched trailing note-ons are discarded
// silently, matching the source's non-fatal policy (UnresolvedNoteEvents is
// never returned).
func pairNotes(t *Track, trackID int) {
	open := make(map[uint8]openNote)
	var hasPercussion, hasMelodic bool
	var firstProgram uint8
	sawProgram := false

	emit := func(id uint8, o openNote, endPulse uint32) {
		t.Notes = append(t.Notes, &Note{
			StartPulse: o.startPulse,
			EndPulse:   endPulse,
			NoteID:     id,
			Channel:    o.channel,
			Velocity:   o.velocity,
			TrackID:    trackID,
			TrackName:  t.Name,
			BarID:      -1,
		})
	}

	for i, ev := range t.Events {
		if ev.Kind != KindChannel {
			continue
		}
		pulse := t.Pulses[i]

		if ev.IsProgramChange() && !sawProgram {
			firstProgram = ev.Data1
			sawProgram = true
		}

		noteID := ev.Data1
		switch {
		case ev.IsNoteOn():
			if IsPercussionChannelForInstrument(ev.Channel) {
				hasPercussion = true
			} else {
				hasMelodic = true
			}
			if existing, ok := open[noteID]; ok {
				emit(noteID, existing, pulse)
			}
			open[noteID] = openNote{startPulse: pulse, channel: ev.Channel, velocity: ev.Data2}
		case ev.IsNoteOff():
			if existing, ok := open[noteID]; ok {
				emit(noteID, existing, pulse)
				delete(open, noteID)
			}
		}
	}

	switch {
	case hasPercussion && hasMelodic:
		t.Various = true
	case hasPercussion:
		t.Percussion = true
	case sawProgram:
		t.Program = firstProgram
	default:
		t.Program = 0
	}
}
