package midi

// TrackEvent pairs an emitted Event with the index of the track it came
// from, as returned by Song.Update (C8).
type TrackEvent struct {
	TrackID int
	Event   *Event
}

// fillTrackUsecs computes each track's cumulative-microsecond sequence from
// its cumulative-pulse sequence via the oracle. Called once at load time.
func fillTrackUsecs(tracks []*Track, oracle *tempoOracle) {
	for _, t := range tracks {
		t.Usecs = make([]int64, len(t.Pulses))
		for i, p := range t.Pulses {
			t.Usecs[i] = oracle.pulseToMicros(p)
		}
		t.UsecsValid = true
		t.lastEmitted = -1
	}
}

// Reset seeks every track to the start of lead-in and clears all cursor
// state (op table, §4.8).
func (s *Song) Reset(leadIn, leadOut int64) {
	s.position = s.SongStart - leadIn
	s.leadOut = leadOut
	s.resetTrackCursors()
	s.firstUpdate = true
}

// ResetDefer is the defer/hide overload of Reset. On its first call ever,
// SongStart and SongEnd are shifted by -defer exactly once (the one-shot
// latch documented in DESIGN.md); later calls leave them untouched
// regardless of the defer argument passed.
func (s *Song) ResetDefer(leadIn, leadOut, deferAmount int64, hide bool) {
	if !s.deferApplied {
		s.SongStart -= deferAmount
		s.SongEnd -= deferAmount
		s.deferApplied = true
	}
	s.deferOffset = deferAmount

	if hide {
		s.position = s.SongStart - leadIn
	} else {
		s.position = -leadIn
	}
	s.leadOut = leadOut
	s.resetTrackCursors()
	s.firstUpdate = true
}

func (s *Song) resetTrackCursors() {
	for _, t := range s.Tracks {
		t.lastEmitted = -1
		t.runningUsecs = 0
		t.changePlay = false
	}
}

// Update advances the song position by delta microseconds and returns every
// event crossed, per track, in file order (concatenated in track-index
// order across tracks, not merged by timestamp; §5). When applyLoop is
// true, loop wraparound is evaluated before events are emitted.
func (s *Song) Update(delta int64, applyLoop bool) []TrackEvent {
	effective := delta
	if s.firstUpdate {
		if s.position > 0 {
			effective += s.position
		}
		s.firstUpdate = false
	}
	s.position += effective

	if applyLoop {
		s.applyLoop()
	}

	var out []TrackEvent
	for ti, t := range s.Tracks {
		prevUsec := t.runningUsecs
		newUsec := s.position

		if t.changePlay {
			for idx := 0; idx <= t.lastEmitted && idx < len(t.Events); idx++ {
				ev := t.Events[idx]
				if ev.Kind == KindChannel && (ev.IsNoteOn() || ev.IsNoteOff()) {
					continue
				}
				if t.Usecs[idx] <= prevUsec {
					out = append(out, TrackEvent{TrackID: ti, Event: ev})
				}
			}
			t.changePlay = false
		}

		for t.lastEmitted+1 < len(t.Events) && t.Usecs[t.lastEmitted+1] <= newUsec {
			t.lastEmitted++
			out = append(out, TrackEvent{TrackID: ti, Event: t.Events[t.lastEmitted]})
		}
		t.runningUsecs = newUsec
	}

	return out
}

// SetLoop records the loop region [start, end] and propagates it to every
// track's cursor state. end == start disables looping.
func (s *Song) SetLoop(start, end int64) {
	s.loopStart = start
	s.loopEnd = end
	for _, t := range s.Tracks {
		t.loopStart = start
		t.loopEnd = end
	}
}

// applyLoop evaluates the loop-wraparound semantics (§4.8) after a raw
// position update. Normal loops (end > start) rewind position backward by
// one loop length when position reaches end. Wrap-around loops (end <
// start) mirror that: reaching loopStart rewinds position backward by
// (loopStart - loopEnd), landing inside [loopEnd, loopStart); otherwise a
// position at or past song end wraps to song start.
func (s *Song) applyLoop() {
	if s.loopEnd == s.loopStart {
		return
	}

	if s.loopEnd > s.loopStart {
		if s.position >= s.loopEnd {
			s.position -= s.loopEnd - s.loopStart
			s.rewindTracksTo(s.position)
		}
		return
	}

	if s.position >= s.loopStart {
		s.position -= s.loopStart - s.loopEnd
		s.rewindTracksTo(s.position)
		return
	}
	if s.position >= s.SongEnd {
		s.position = s.SongStart
		s.rewindTracksTo(s.SongStart)
	}
}

// rewindTracksTo rewinds every track's cursor so that the next Update
// re-emits pending control events before resuming note emission at limit.
func (s *Song) rewindTracksTo(limit int64) {
	for _, t := range s.Tracks {
		t.lastEmitted = lastEventIndexBefore(t, limit)
		t.runningUsecs = limit
		t.changePlay = true
	}
}

func lastEventIndexBefore(t *Track, limit int64) int {
	idx := -1
	for i, usec := range t.Usecs {
		if usec < limit {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// SetPlayStart seeks every track to t and arms the control-event replay:
// the return value is every non-note event with cumulative microseconds ≤
// t per track (op table, §4.8); a subsequent Update(0, ...) call reproduces
// the identical set (round-trip property 8, §8), since the replay flag
// stays armed until an Update call consumes it.
func (s *Song) SetPlayStart(t int64) []TrackEvent {
	s.position = t
	var out []TrackEvent
	for ti, track := range s.Tracks {
		idx := lastEventIndexBefore(track, t+1)
		track.lastEmitted = idx
		track.runningUsecs = t
		track.changePlay = true
		for i := 0; i <= idx && i < len(track.Events); i++ {
			ev := track.Events[i]
			if ev.Kind == KindChannel && (ev.IsNoteOn() || ev.IsNoteOff()) {
				continue
			}
			out = append(out, TrackEvent{TrackID: ti, Event: ev})
		}
	}
	return out
}

// IsSongOver reports whether position has reached song end plus lead-out.
func (s *Song) IsSongOver() bool {
	return s.position >= s.SongEnd+s.leadOut
}

// Position returns the current song position in microseconds.
func (s *Song) Position() int64 {
	return s.position
}

// Mute removes the named track from the main playback list into a parallel
// muted list, so the cursor stops emitting its events (§4.8). A no-op if
// the track is already muted or does not exist.
func (s *Song) Mute(trackName string) {
	if s.muteNames[trackName] {
		return
	}
	for i, t := range s.Tracks {
		if t.Name == trackName {
			s.muteNames[trackName] = true
			s.mutedList = append(s.mutedList, t)
			s.Tracks = append(s.Tracks[:i], s.Tracks[i+1:]...)
			return
		}
	}
}

// Unmute moves a previously muted track back into the main playback list.
func (s *Song) Unmute(trackName string) {
	if !s.muteNames[trackName] {
		return
	}
	for i, t := range s.mutedList {
		if t.Name == trackName {
			delete(s.muteNames, trackName)
			s.Tracks = append(s.Tracks, t)
			s.mutedList = append(s.mutedList[:i], s.mutedList[i+1:]...)
			return
		}
	}
}

// Play copies the named track into a parallel "solo" list, leaving the
// original in the main list untouched (asymmetric with Mute, §4.8).
func (s *Song) Play(trackName string) {
	if s.playNames[trackName] {
		return
	}
	for _, t := range s.Tracks {
		if t.Name == trackName {
			cp := *t
			s.playNames[trackName] = true
			s.playList = append(s.playList, &cp)
			return
		}
	}
}

// Unplay removes the named track's solo copy.
func (s *Song) Unplay(trackName string) {
	if !s.playNames[trackName] {
		return
	}
	for i, t := range s.playList {
		if t.Name == trackName {
			delete(s.playNames, trackName)
			s.playList = append(s.playList[:i], s.playList[i+1:]...)
			return
		}
	}
}

// AggregateEventCount sums the event count across every active track (§5.5).
func (s *Song) AggregateEventCount() int {
	total := 0
	for _, t := range s.Tracks {
		total += t.EventCount()
	}
	return total
}

// AggregateEventsRemain sums the not-yet-emitted event count across every
// active track (§5.5).
func (s *Song) AggregateEventsRemain() int {
	total := 0
	for _, t := range s.Tracks {
		total += t.EventsRemain()
	}
	return total
}

// AggregateNoteCount sums the note count across every active track (§5.5).
func (s *Song) AggregateNoteCount() int {
	total := 0
	for _, t := range s.Tracks {
		total += len(t.Notes)
	}
	return total
}

// AggregateNotesRemain sums the count of notes whose end pulse has not yet
// been crossed by the current position, across every active track (§5.5).
func (s *Song) AggregateNotesRemain() int {
	total := 0
	for _, t := range s.Tracks {
		for _, n := range t.Notes {
			if notePulseUsec(t, n.EndPulse) > s.position {
				total++
			}
		}
	}
	return total
}

// notePulseUsec looks up the microsecond offset of a pulse already present
// in a track's cumulative-pulse sequence (every note boundary pulse came
// from a channel event in this track, so it is always present).
func notePulseUsec(t *Track, pulse uint32) int64 {
	for i, p := range t.Pulses {
		if p == pulse {
			return t.Usecs[i]
		}
	}
	if len(t.Usecs) > 0 {
		return t.Usecs[len(t.Usecs)-1]
	}
	return 0
}
