package midi

import "strings"

// PrivateMetadata is the optional tempo/difficulty/style tagging extracted
// from the first track's leading text meta event (§6).
type PrivateMetadata struct {
	Tempo      string
	Difficulty string
	Style      string
	Present    bool
}

// Song is a loaded, normalized MIDI file: original tracks plus the two
// synthetic meter/tempo tracks, the precomputed bar/beat timeline, and the
// mutable playback state described in the data model (§3).
type Song struct {
	PPQN   uint32
	Format uint16

	Tracks     []*Track
	MeterTrack *Track
	TempoTrack *Track
	oracle     *tempoOracle

	BarPulses []uint32
	BarUsecs  []int64
	BarBeats  [][]BeatWindow

	ReservedBars int

	SongStart        int64
	SongEnd          int64
	DeadAirStartUsec int64

	InitialTempoMicros uint32
	InitialNumerator   uint8
	InitialDenominator uint8

	Metadata PrivateMetadata

	// Playback state (C8); see cursor.go for the operations over these.
	position     int64
	leadOut      int64
	loopStart    int64
	loopEnd      int64
	deferOffset  int64
	deferApplied bool
	firstUpdate  bool

	muteNames map[string]bool
	playNames map[string]bool
	mutedList []*Track
	playList  []*Track
}

// LoadSong parses a Standard MIDI File (Type 0 or 1, optionally RIFF
// wrapped) and returns a fully normalized Song, or a *LoadError. Partial
// Songs are never returned (§7).
func LoadSong(data []byte) (*Song, error) {
	r := newByteReader(data)

	if r.remaining() >= 4 {
		peek, _ := r.readBytes(4)
		r.pos -= 4
		if string(peek) == tagRIFF {
			stripped, err := stripRIFF(r)
			if err != nil {
				return nil, err
			}
			r = stripped
		}
	}

	format, trackCount, ppqn, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}

	tracks := make([]*Track, 0, trackCount)
	for i := 0; i < int(trackCount); i++ {
		t, err := decodeTrack(r)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	for i, t := range tracks {
		pairNotes(t, i)
	}

	meterTrack, tempoTrack := normalizeTempoAndMeter(tracks)
	oracle := newTempoOracle(ppqn, tempoTrack)
	fillTrackUsecs(tracks, oracle)
	fillTrackUsecs([]*Track{meterTrack, tempoTrack}, oracle)

	var lastNoteOff, firstNoteOn uint32
	sawNote := false
	for _, t := range tracks {
		for _, n := range t.Notes {
			if n.EndPulse > lastNoteOff {
				lastNoteOff = n.EndPulse
			}
			if !sawNote || n.StartPulse < firstNoteOn {
				firstNoteOn = n.StartPulse
				sawNote = true
			}
		}
	}

	barPulses, barUsecs, barBeats := buildBarTimeline(meterTrack, oracle, ppqn, lastNoteOff)
	reserved := reservedBarCount(barPulses, firstNoteOn)

	assignNoteBars(tracks, barPulses, barUsecs)

	var songEnd int64
	if len(barUsecs) > 0 {
		songEnd = barUsecs[len(barUsecs)-1]
	}

	initTempo := uint32(defaultTempoMicros)
	if len(tempoTrack.Events) > 0 {
		initTempo = tempoTrack.Events[0].TempoMicros
	}
	initNum, initDenom := uint8(4), uint8(4)
	if len(meterTrack.Events) > 0 {
		initNum, initDenom = meterTrack.Events[0].Numerator, meterTrack.Events[0].Denominator
	}

	song := &Song{
		PPQN:               ppqn,
		Format:             format,
		Tracks:             tracks,
		MeterTrack:         meterTrack,
		TempoTrack:         tempoTrack,
		oracle:             oracle,
		BarPulses:          barPulses,
		BarUsecs:           barUsecs,
		BarBeats:           barBeats,
		ReservedBars:       reserved,
		SongEnd:            songEnd,
		DeadAirStartUsec:   oracle.pulseToMicros(firstNoteOn),
		InitialTempoMicros: initTempo,
		InitialNumerator:   initNum,
		InitialDenominator: initDenom,
		muteNames:          make(map[string]bool),
		playNames:          make(map[string]bool),
	}

	if len(tracks) > 0 {
		song.Metadata = extractPrivateMetadata(tracks[0])
	}

	return song, nil
}

func stripRIFF(r *byteReader) (*byteReader, error) {
	riff, err := readTag(r, 4)
	if err != nil || riff != tagRIFF {
		return nil, newLoadError(UnknownHeaderType, "expected RIFF")
	}
	if _, err := r.readU32BE(); err != nil {
		return nil, err
	}
	rmid, err := readTag(r, 4)
	if err != nil || rmid != tagRMID {
		return nil, newLoadError(UnknownHeaderType, "expected RMID")
	}
	dataTag, err := readTag(r, 4)
	if err != nil || dataTag != tagData {
		return nil, newLoadError(UnknownHeaderType, "expected data chunk")
	}
	if _, err := r.readU32BE(); err != nil {
		return nil, err
	}
	rest, err := r.readBytes(r.remaining())
	if err != nil {
		return nil, err
	}
	return newByteReader(rest), nil
}

func decodeHeader(r *byteReader) (format uint16, trackCount uint16, ppqn uint32, err error) {
	if r.remaining() < 14 {
		return 0, 0, 0, newLoadError(NoHeader, "file too short for MThd")
	}
	tag, err := readTag(r, 4)
	if err != nil {
		return 0, 0, 0, err
	}
	if tag != tagMThd {
		return 0, 0, 0, newLoadErrorf(UnknownHeaderType, "got %q", tag)
	}
	length, err := r.readU32BE()
	if err != nil {
		return 0, 0, 0, err
	}
	if length != 6 {
		return 0, 0, 0, newLoadErrorf(BadHeaderSize, "length %d", length)
	}
	format, err = r.readU16BE()
	if err != nil {
		return 0, 0, 0, err
	}
	if format == 2 {
		return 0, 0, 0, newLoadError(Type2MidiNotSupported, "")
	}
	if format > 1 {
		return 0, 0, 0, newLoadErrorf(BadType0Midi, "format %d", format)
	}
	trackCount, err = r.readU16BE()
	if err != nil {
		return 0, 0, 0, err
	}
	division, err := r.readU16BE()
	if err != nil {
		return 0, 0, 0, err
	}
	if division&0x8000 != 0 {
		return 0, 0, 0, newLoadError(SMPTETimingNotImplemented, "")
	}
	return format, trackCount, uint32(division & 0x7FFF), nil
}

// assignNoteBars fills in each note's BarID once the bar timeline exists,
// by locating the last bar whose start pulse is ≤ the note's start pulse.
func assignNoteBars(tracks []*Track, barPulses []uint32, barUsecs []int64) {
	if len(barPulses) == 0 {
		return
	}
	for _, t := range tracks {
		for _, n := range t.Notes {
			bar := barIDForPulse(barPulses, n.StartPulse)
			n.BarID = bar
			if bar >= 0 && bar < len(barUsecs)-1 {
				n.BeatDuration = barUsecs[bar+1] - barUsecs[bar]
			}
		}
	}
}

func barIDForPulse(barPulses []uint32, pulse uint32) int {
	lo, hi := 0, len(barPulses)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if barPulses[mid] <= pulse {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// BarID returns the index of the bar containing microsecond t, clamped to
// the final bar if t is out of range (§7: out-of-range bar queries clamp).
func (s *Song) BarID(t int64) int {
	if len(s.BarUsecs) == 0 {
		return -1
	}
	lo, hi := 0, len(s.BarUsecs)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if s.BarUsecs[mid] <= t {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// extractPrivateMetadata checks the first track's first text meta event (up
// to the first newline) for the Speed/Level/Style convention (§6).
func extractPrivateMetadata(first *Track) PrivateMetadata {
	var text string
	found := false
	for _, ev := range first.Events {
		if ev.Kind == KindMeta && ev.MetaType == metaText {
			text = ev.Text
			found = true
			break
		}
	}
	if !found {
		return PrivateMetadata{}
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	if !strings.Contains(text, "Speed") || !strings.Contains(text, "Level") || !strings.Contains(text, "Style") {
		return PrivateMetadata{}
	}

	tokens := strings.Split(text, "_")
	if len(tokens) < 3 {
		return PrivateMetadata{}
	}
	difficulty := tokens[len(tokens)-1]
	style := tokens[len(tokens)-2]
	tempo := strings.Join(tokens[:len(tokens)-2], "_")

	return PrivateMetadata{Tempo: tempo, Difficulty: difficulty, Style: style, Present: true}
}

// InitialTickRate converts the song's initial tempo into an integer "ticks"
// cadence (60,000,000 / tempo, rounded up when the remainder is large),
// supplementing spec.md with the original's GetSongInitTicks (§5.1).
func (s *Song) InitialTickRate() int64 {
	if s.InitialTempoMicros == 0 {
		return 0
	}
	ticks := int64(60_000_000) / int64(s.InitialTempoMicros)
	remainder := int64(60_000_000) % int64(s.InitialTempoMicros)
	if remainder*2 >= int64(s.InitialTempoMicros) {
		ticks++
	}
	return ticks
}

// DeadAirOffset returns the microsecond just before the song's first
// note-on (§5.6).
func (s *Song) DeadAirOffset() int64 {
	return s.DeadAirStartUsec
}

// SongLength returns the song's audible length, excluding pre-roll silence
// (§5.6: base song length minus dead-air offset).
func (s *Song) SongLength() int64 {
	length := s.SongEnd - s.DeadAirStartUsec
	if length < 0 {
		return 0
	}
	return length
}

// PercentComplete returns the current position as a fraction of SongLength,
// clamped to [0, 1] (§5.2).
func (s *Song) PercentComplete() float64 {
	length := s.SongLength()
	if length <= 0 {
		return 0
	}
	pos := s.position - s.DeadAirStartUsec
	switch {
	case pos <= 0:
		return 0
	case pos >= length:
		return 1
	default:
		return float64(pos) / float64(length)
	}
}

// CurrentBarID returns the bar index of the current playback position
// (§5.3, distinct from BarID which takes an explicit time).
func (s *Song) CurrentBarID() int {
	return s.BarID(s.position)
}

// MeterAt returns the (numerator, denominator) in effect at microsecond
// usec, defaulting to 4/4 when the meter track is empty (§7).
func (s *Song) MeterAt(usec int64) (numerator, denominator uint8) {
	numerator, denominator = 4, 4
	if s.MeterTrack == nil {
		return
	}
	for i, u := range s.MeterTrack.Usecs {
		if u > usec {
			break
		}
		numerator = s.MeterTrack.Events[i].Numerator
		denominator = s.MeterTrack.Events[i].Denominator
	}
	return
}

// TempoAt returns the microseconds-per-quarter-note tempo in effect at
// microsecond usec, defaulting to 120 BPM when the tempo track is empty (§7).
func (s *Song) TempoAt(usec int64) uint32 {
	tempo := uint32(defaultTempoMicros)
	if s.TempoTrack == nil {
		return tempo
	}
	for i, u := range s.TempoTrack.Usecs {
		if u > usec {
			break
		}
		tempo = s.TempoTrack.Events[i].TempoMicros
	}
	return tempo
}
