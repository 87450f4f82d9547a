package midi

import "testing"

func mthdHeader(format, division uint16) []byte {
	return []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6,
		byte(format >> 8), byte(format),
		0, 1,
		byte(division >> 8), byte(division),
	}
}

func mtrkChunk(payload []byte) []byte {
	n := len(payload)
	header := []byte{'M', 'T', 'r', 'k', byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	return append(header, payload...)
}

func TestLoadSong_TempoAndNotePairing(t *testing.T) {
	payload := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000 at delta 0
		0x00, 0x90, 0x3C, 0x64, // note-on C4 ch0 vel100
		0x60, 0x80, 0x3C, 0x00, // note-off at delta 96
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}
	data := append(mthdHeader(0, 96), mtrkChunk(payload)...)

	song, err := LoadSong(data)
	if err != nil {
		t.Fatalf("LoadSong: %v", err)
	}
	if song.PPQN != 96 {
		t.Fatalf("PPQN = %d, want 96", song.PPQN)
	}
	if len(song.Tracks) != 1 {
		t.Fatalf("track count = %d, want 1", len(song.Tracks))
	}
	notes := song.Tracks[0].Notes
	if len(notes) != 1 {
		t.Fatalf("note count = %d, want 1", len(notes))
	}
	n := notes[0]
	if n.StartPulse != 0 || n.EndPulse != 96 {
		t.Fatalf("note pulses = [%d,%d], want [0,96]", n.StartPulse, n.EndPulse)
	}
	if got := song.oracle.pulseToMicros(96); got != 500000 {
		t.Fatalf("pulseToMicros(96) = %d, want 500000", got)
	}
	if len(song.TempoTrack.Events) != 1 {
		t.Fatalf("tempo track events = %d, want 1", len(song.TempoTrack.Events))
	}
	if len(song.MeterTrack.Events) != 0 {
		t.Fatalf("meter track events = %d, want 0", len(song.MeterTrack.Events))
	}
}

func TestLoadSong_TempoChangeMidNote(t *testing.T) {
	payload := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000 at pulse 0
		0x00, 0x90, 0x3C, 0x64, // note-on at pulse 0
		0x60, 0xFF, 0x51, 0x03, 0x03, 0xD0, 0x90, // tempo 250000 at pulse 96
		0x60, 0x80, 0x3C, 0x00, // note-off at pulse 192
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := append(mthdHeader(0, 96), mtrkChunk(payload)...)

	song, err := LoadSong(data)
	if err != nil {
		t.Fatalf("LoadSong: %v", err)
	}
	if got := song.oracle.pulseToMicros(192); got != 750000 {
		t.Fatalf("pulseToMicros(192) = %d, want 750000", got)
	}
}

func TestLoadSong_FourBarTimeline(t *testing.T) {
	payload := []byte{
		0x00, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08, // 4/4 meter at pulse 0
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000 at pulse 0
		0x00, 0x90, 0x3C, 0x64, // note-on at pulse 0
		0x89, 0x30, 0x80, 0x3C, 0x00, // note-off at pulse 1200
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := append(mthdHeader(0, 96), mtrkChunk(payload)...)

	song, err := LoadSong(data)
	if err != nil {
		t.Fatalf("LoadSong: %v", err)
	}

	wantUsecs := []int64{0, 2000000, 4000000, 6000000, 8000000}
	if len(song.BarUsecs) != len(wantUsecs) {
		t.Fatalf("bar count = %d, want %d (%v)", len(song.BarUsecs), len(wantUsecs), song.BarUsecs)
	}
	for i, want := range wantUsecs {
		if song.BarUsecs[i] != want {
			t.Errorf("bar[%d] usec = %d, want %d", i, song.BarUsecs[i], want)
		}
	}
	for i := 0; i < len(song.BarUsecs)-1; i++ {
		if song.BarUsecs[i+1] <= song.BarUsecs[i] {
			t.Fatalf("bar usecs not strictly increasing at %d", i)
		}
		if len(song.BarBeats[i]) != 4 {
			t.Errorf("bar %d has %d beats, want 4", i, len(song.BarBeats[i]))
		}
	}
}

func TestLoadSong_RejectsType2(t *testing.T) {
	data := mthdHeader(2, 96)
	_, err := LoadSong(data)
	if err == nil {
		t.Fatal("expected error for type 2 midi")
	}
	le, ok := err.(*LoadError)
	if !ok || le.Kind != Type2MidiNotSupported {
		t.Fatalf("err = %v, want Type2MidiNotSupported", err)
	}
}

func TestLoadSong_RejectsSMPTEDivision(t *testing.T) {
	data := mthdHeader(0, 0x9000)
	_, err := LoadSong(data)
	if err == nil {
		t.Fatal("expected error for SMPTE division")
	}
	le, ok := err.(*LoadError)
	if !ok || le.Kind != SMPTETimingNotImplemented {
		t.Fatalf("err = %v, want SMPTETimingNotImplemented", err)
	}
}

func TestLoadSong_EmptyMeterTrackYieldsEmptyTimeline(t *testing.T) {
	payload := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x60, 0x80, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := append(mthdHeader(0, 96), mtrkChunk(payload)...)

	song, err := LoadSong(data)
	if err != nil {
		t.Fatalf("LoadSong: %v", err)
	}
	if len(song.BarUsecs) != 0 {
		t.Fatalf("bar count = %d, want 0 for empty meter track", len(song.BarUsecs))
	}
	if song.BarID(1234) != -1 {
		t.Fatalf("BarID on empty timeline = %d, want -1 sentinel", song.BarID(1234))
	}
}
