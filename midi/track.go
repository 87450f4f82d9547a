package midi

// Track is an ordered sequence of events paired with parallel cumulative
// pulse and (after timeline construction) microsecond offsets (C3).
//
// Invariant: Pulses is monotonically non-decreasing; once UsecsValid is
// true, Usecs is monotonically non-decreasing and the same length as Events.
type Track struct {
	Name   string
	Events []*Event
	Pulses []uint32
	Usecs  []int64

	UsecsValid bool

	// Notes is the derived note set (C4), populated by pairNotes.
	Notes []*Note

	// Percussion/Various/Program record the instrument discovery result
	// (C4). Various is true when a track mixes percussion and melodic
	// notes; Program is the first program-change seen otherwise (0 default).
	Percussion bool
	Various    bool
	Program    uint8

	// cursor state for playback (C8): index of the last emitted event and
	// the running microsecond accumulator for this track.
	lastEmitted  int
	runningUsecs int64
	loopStart    int64
	loopEnd      int64
	changePlay   bool
}

const (
	tagMThd = "MThd"
	tagMTrk = "MTrk"
	tagRIFF = "RIFF"
	tagRMID = "RMID"
	tagData = "data"
)

func readTag(r *byteReader, n int) (string, error) {
	b, err := r.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTrack reads one MTrk chunk: tag, big-endian u32 length, then exactly
// that many bytes as a bounded sub-stream of events (C3).
func decodeTrack(r *byteReader) (*Track, error) {
	if r.remaining() < 8 {
		return nil, newLoadError(TrackHeaderTooShort, "MTrk header")
	}
	tag, err := readTag(r, 4)
	if err != nil {
		return nil, err
	}
	if tag != tagMTrk {
		return nil, newLoadErrorf(BadTrackHeaderType, "got %q", tag)
	}
	length, err := r.readU32BE()
	if err != nil {
		return nil, err
	}
	if r.remaining() < int(length) {
		return nil, newLoadError(TrackTooShort, "declared length exceeds remaining bytes")
	}
	sub, err := r.subReader(int(length))
	if err != nil {
		return nil, err
	}

	track := &Track{}
	var runningStatus byte
	var cumulative uint32

	for sub.remaining() > 0 {
		ev, next, err := decodeEvent(sub, runningStatus)
		if err != nil {
			return nil, err
		}
		runningStatus = next
		cumulative += ev.Delta

		track.Events = append(track.Events, ev)
		track.Pulses = append(track.Pulses, cumulative)

		if ev.Kind == KindMeta && ev.MetaType == metaTrackName && track.Name == "" {
			track.Name = ev.Text
		}
	}

	return track, nil
}

// EventCount returns the total number of events in this track, regardless
// of the playback cursor position (§5, supplemented feature).
func (t *Track) EventCount() int {
	return len(t.Events)
}

// EventsRemain returns how many events have not yet been emitted by the
// playback cursor for this track.
func (t *Track) EventsRemain() int {
	remain := len(t.Events) - (t.lastEmitted + 1)
	if remain < 0 {
		return 0
	}
	return remain
}
