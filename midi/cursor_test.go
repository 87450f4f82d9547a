package midi

import "testing"

func newCursorTestSong(usecs []int64) *Song {
	track := &Track{Name: "lead"}
	for i, u := range usecs {
		var ev *Event
		if i%3 == 0 {
			ev = &Event{Kind: KindChannel, Status: 0xB0, Channel: 0, Data1: 7, Data2: byte(i)} // control change
		} else {
			ev = &Event{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 100} // note-on
		}
		track.Events = append(track.Events, ev)
		track.Pulses = append(track.Pulses, uint32(u))
		track.Usecs = append(track.Usecs, u)
	}
	track.UsecsValid = true
	track.lastEmitted = -1

	return &Song{
		Tracks:    []*Track{track},
		SongStart: 0,
		SongEnd:   usecs[len(usecs)-1],
		muteNames: make(map[string]bool),
		playNames: make(map[string]bool),
	}
}

func TestSong_UpdateEmitsEventsInRange(t *testing.T) {
	s := newCursorTestSong([]int64{0, 1000, 2000, 3000})

	got := s.Update(1500, false)
	if len(got) != 2 {
		t.Fatalf("first Update emitted %d events, want 2 (at 0 and 1000)", len(got))
	}

	got = s.Update(1000, false)
	if len(got) != 1 {
		t.Fatalf("second Update emitted %d events, want 1 (at 2000)", len(got))
	}
}

func TestSong_FirstUpdateAfterResetExpandsDelta(t *testing.T) {
	s := newCursorTestSong([]int64{0, 500, 1500})
	s.Reset(0, 0)
	// Simulate a hide=true defer reset landing ahead of song start: position
	// starts positive, but track cursors are still at their Reset baseline.
	s.position = 800

	got := s.Update(100, false)
	if len(got) != 3 {
		t.Fatalf("emitted %d events, want 3 (expanded first delta reaches every event up to the new position)", len(got))
	}
	if s.position != 1700 {
		t.Fatalf("position = %d, want 1700 (800 starting + 100 delta + 800 expansion)", s.position)
	}
}

func TestSong_NormalLoopRewinds(t *testing.T) {
	s := newCursorTestSong([]int64{0, 1000, 2000, 3000, 4000, 5000})
	s.SetLoop(1000, 4000)

	s.position = 3500
	s.firstUpdate = false
	got := s.Update(700, true) // raw position 4200, 200 past loopEnd(4000) -> rewinds to loopStart(1000)+200
	if s.position != 1200 {
		t.Fatalf("position after loop = %d, want 1200", s.position)
	}
	foundControlReplay := false
	for _, te := range got {
		if te.Event.Status&0xF0 == 0xB0 {
			foundControlReplay = true
		}
	}
	if !foundControlReplay {
		t.Error("expected a replayed control event after the loop rewind")
	}
}

func TestSong_WrapAroundLoop(t *testing.T) {
	s := newCursorTestSong([]int64{0, 2000000, 4000000, 6000000, 8000000, 10000000})
	s.SongEnd = 10000000
	s.SetLoop(8000000, 2000000) // loopEnd(2s) < loopStart(8s): wrap-around

	s.position = 7000000
	s.firstUpdate = false
	s.Update(2000000, true)

	if s.position != 3000000 {
		t.Fatalf("position after wrap-around loop = %d, want 3000000", s.position)
	}
}

func TestSong_SetPlayStartThenUpdateZeroReplaysControlEvents(t *testing.T) {
	s := newCursorTestSong([]int64{0, 1000, 2000, 3000})

	first := s.SetPlayStart(2500)
	for _, te := range first {
		if te.Event.IsNoteOn() || te.Event.IsNoteOff() {
			t.Errorf("SetPlayStart returned a note event: %+v", te.Event)
		}
	}

	second := s.Update(0, false)
	for _, te := range second {
		if te.Event.IsNoteOn() || te.Event.IsNoteOff() {
			t.Errorf("Update(0) after SetPlayStart returned a note event: %+v", te.Event)
		}
	}
}

func TestSong_IsSongOver(t *testing.T) {
	s := newCursorTestSong([]int64{0, 1000})
	s.SongEnd = 1000
	s.leadOut = 200

	s.position = 1199
	if s.IsSongOver() {
		t.Fatal("song should not be over before SongEnd+leadOut")
	}
	s.position = 1200
	if !s.IsSongOver() {
		t.Fatal("song should be over at SongEnd+leadOut")
	}
}

func TestSong_MuteRemovesTrackSoloCopiesIt(t *testing.T) {
	s := newCursorTestSong([]int64{0, 1000})
	s.Tracks[0].Name = "drum"

	s.Mute("drum")
	if len(s.Tracks) != 0 {
		t.Fatalf("Tracks after mute = %d, want 0 (muted track removed from main list)", len(s.Tracks))
	}
	if len(s.mutedList) != 1 {
		t.Fatalf("mutedList = %d, want 1", len(s.mutedList))
	}

	s.Unmute("drum")
	if len(s.Tracks) != 1 {
		t.Fatalf("Tracks after unmute = %d, want 1", len(s.Tracks))
	}

	s.Play("drum")
	if len(s.Tracks) != 1 {
		t.Fatalf("Play should not remove the track from the main list; Tracks = %d, want 1", len(s.Tracks))
	}
	if len(s.playList) != 1 {
		t.Fatalf("playList = %d, want 1", len(s.playList))
	}
}
