package midi

// drumTrackName is the one track name spliced across files by LinkSongs;
// every other track in a subsequent file is ignored (§4.11).
const drumTrackName = "drum"

// LinkSongs loads the first byte stream as the base Song and splices each
// subsequent one onto it: bar/beat timeline extended with an offset, and
// the track named "drum" appended with pulse/microsecond deltas that
// preserve phase continuity. All other tracks in subsequent files are
// ignored (C11).
func LinkSongs(files [][]byte) (*Song, error) {
	if len(files) == 0 {
		return nil, newLoadError(BadFilename, "no files given to LinkSongs")
	}

	base, err := LoadSong(files[0])
	if err != nil {
		return nil, err
	}

	for _, data := range files[1:] {
		next, err := LoadSong(data)
		if err != nil {
			return nil, err
		}
		base.appendSong(next)
	}

	return base, nil
}

// appendSong splices other's bar timeline and "drum" track onto s.
func (s *Song) appendSong(other *Song) {
	var pulseBase uint32
	var usecBase int64
	if len(s.BarPulses) > 0 {
		pulseBase = s.BarPulses[len(s.BarPulses)-1]
		usecBase = s.BarUsecs[len(s.BarUsecs)-1]
	}

	for i := 1; i < len(other.BarPulses); i++ {
		s.BarPulses = append(s.BarPulses, other.BarPulses[i]+pulseBase)
		s.BarUsecs = append(s.BarUsecs, other.BarUsecs[i]+usecBase)

		var windows []BeatWindow
		if i < len(other.BarBeats) {
			windows = make([]BeatWindow, len(other.BarBeats[i]))
			for j, w := range other.BarBeats[i] {
				windows[j] = BeatWindow{
					Index:     w.Index,
					StartUsec: w.StartUsec + usecBase,
					EndUsec:   w.EndUsec + usecBase,
				}
			}
		}
		s.BarBeats = append(s.BarBeats, windows)
	}

	if len(s.BarUsecs) > 0 {
		s.SongEnd = s.BarUsecs[len(s.BarUsecs)-1]
	}

	baseDrum := findTrackByName(s.Tracks, drumTrackName)
	otherDrum := findTrackByName(other.Tracks, drumTrackName)
	if baseDrum == nil || otherDrum == nil {
		return
	}

	var pulseDelta uint32
	var usecDelta int64
	if len(baseDrum.Pulses) > 0 {
		pulseDelta = baseDrum.Pulses[len(baseDrum.Pulses)-1]
	}
	if len(baseDrum.Usecs) > 0 {
		usecDelta = baseDrum.Usecs[len(baseDrum.Usecs)-1]
	}

	for i, ev := range otherDrum.Events {
		baseDrum.Events = append(baseDrum.Events, ev)
		baseDrum.Pulses = append(baseDrum.Pulses, otherDrum.Pulses[i]+pulseDelta)
		if otherDrum.UsecsValid && i < len(otherDrum.Usecs) {
			baseDrum.Usecs = append(baseDrum.Usecs, otherDrum.Usecs[i]+usecDelta)
		}
	}

	for _, n := range otherDrum.Notes {
		clone := *n
		clone.StartPulse += pulseDelta
		clone.EndPulse += pulseDelta
		clone.TrackName = baseDrum.Name
		baseDrum.Notes = append(baseDrum.Notes, &clone)
	}
}

func findTrackByName(tracks []*Track, name string) *Track {
	for _, t := range tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}
