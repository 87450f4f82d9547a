package midi

import "testing"

func TestMetronome_FreeRunningFirstTickIsStrongBeat(t *testing.T) {
	m := NewMetronome()
	m.Init(0)
	song := &Song{SongEnd: 100000000}

	got := m.Update(500000, song, true, false, false)
	if len(got) != 3 {
		t.Fatalf("first free-running tick emitted %d events, want 3 (strong beat click)", len(got))
	}
	if m.Light() != Red {
		t.Fatalf("Light() after a strong beat = %v, want Red", m.Light())
	}
}

func TestMetronome_NotPlayingEmitsSilenceOnceThenNothing(t *testing.T) {
	m := NewMetronome()
	m.Init(0)
	song := &Song{SongEnd: 100000000}

	m.Update(100, song, true, false, false)

	got := m.Update(100, song, false, false, false)
	if len(got) != 3 {
		t.Fatalf("stopping playback emitted %d events, want 3 (silence)", len(got))
	}

	got = m.Update(100, song, false, false, false)
	if got != nil {
		t.Fatalf("repeated not-playing update emitted %v, want nil", got)
	}
}

func TestMetronome_KnockOnStickPreludeThenSongBegins(t *testing.T) {
	m := NewMetronome()
	m.Init(0)
	song := &Song{SongEnd: 100000000}

	wantCounts := []int{2, 2, 2, 0, 3}
	for i, want := range wantCounts {
		got := m.Update(500000, song, true, true, true)
		if len(got) != want {
			t.Errorf("call %d emitted %d events, want %d", i, len(got), want)
		}
	}
}

func TestMetronome_PendulumAlternatesSignAcrossBeatBoundaries(t *testing.T) {
	m := NewMetronome()
	m.Init(0)
	song := &Song{SongEnd: 100000000}

	// Consume the first-fire latch on every oscillator with a tiny nudge so
	// the following full-beat-length updates land exactly on a boundary.
	m.Update(1, song, true, true, false)

	m.Update(499999, song, true, true, false) // lands exactly on the first beat boundary
	firstBoundary := m.MetronomeValue()

	m.Update(500000, song, true, true, false) // exactly one more beat
	secondBoundary := m.MetronomeValue()

	if firstBoundary != 1.0 {
		t.Errorf("value at first boundary = %v, want 1.0", firstBoundary)
	}
	if secondBoundary != -1.0 {
		t.Errorf("value at second boundary = %v, want -1.0", secondBoundary)
	}
}

func TestMetronome_InitialValueIsPositiveOne(t *testing.T) {
	m := NewMetronome()
	m.Init(0)

	if got := m.MetronomeValue(); got != 1.0 {
		t.Fatalf("MetronomeValue before any Update = %v, want 1.0", got)
	}
}
