package midi

import "testing"

func TestPairNotes_RepeatedNoteOnClosesPrevious(t *testing.T) {
	track := &Track{
		Events: []*Event{
			{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 100}, // note-on @0
			{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 90},  // note-on again @50, closes first
			{Kind: KindChannel, Status: 0x80, Channel: 0, Data1: 60, Data2: 0},   // note-off @80, closes second
		},
		Pulses: []uint32{0, 50, 80},
	}

	pairNotes(track, 0)

	if len(track.Notes) != 2 {
		t.Fatalf("note count = %d, want 2", len(track.Notes))
	}
	if track.Notes[0].StartPulse != 0 || track.Notes[0].EndPulse != 50 {
		t.Errorf("first note = [%d,%d], want [0,50]", track.Notes[0].StartPulse, track.Notes[0].EndPulse)
	}
	if track.Notes[1].StartPulse != 50 || track.Notes[1].EndPulse != 80 {
		t.Errorf("second note = [%d,%d], want [50,80]", track.Notes[1].StartPulse, track.Notes[1].EndPulse)
	}
}

func TestPairNotes_TrailingUnmatchedNoteOnDiscarded(t *testing.T) {
	track := &Track{
		Events: []*Event{
			{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 100},
		},
		Pulses: []uint32{0},
	}

	pairNotes(track, 0)

	if len(track.Notes) != 0 {
		t.Fatalf("note count = %d, want 0 (unmatched note-on is silently discarded)", len(track.Notes))
	}
}

func TestPairNotes_VelocityZeroNoteOnActsAsNoteOff(t *testing.T) {
	track := &Track{
		Events: []*Event{
			{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 100},
			{Kind: KindChannel, Status: 0x90, Channel: 0, Data1: 60, Data2: 0},
		},
		Pulses: []uint32{0, 10},
	}

	pairNotes(track, 0)

	if len(track.Notes) != 1 {
		t.Fatalf("note count = %d, want 1", len(track.Notes))
	}
	if track.Notes[0].EndPulse != 10 {
		t.Errorf("end pulse = %d, want 10", track.Notes[0].EndPulse)
	}
}

func TestPairNotes_InstrumentDiscovery(t *testing.T) {
	cases := []struct {
		name       string
		channel    uint8
		otherChan  uint8
		wantVarious    bool
		wantPercuss bool
	}{
		{"percussion channel 9", 9, 9, false, true},
		{"percussion channel 15", 15, 15, false, true},
		{"mixed percussion and melodic", 9, 1, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			track := &Track{
				Events: []*Event{
					{Kind: KindChannel, Status: 0x90 | tc.channel, Channel: tc.channel, Data1: 60, Data2: 100},
					{Kind: KindChannel, Status: 0x80 | tc.channel, Channel: tc.channel, Data1: 60, Data2: 0},
					{Kind: KindChannel, Status: 0x90 | tc.otherChan, Channel: tc.otherChan, Data1: 61, Data2: 100},
					{Kind: KindChannel, Status: 0x80 | tc.otherChan, Channel: tc.otherChan, Data1: 61, Data2: 0},
				},
				Pulses: []uint32{0, 10, 0, 10},
			}
			pairNotes(track, 0)
			if track.Various != tc.wantVarious {
				t.Errorf("Various = %v, want %v", track.Various, tc.wantVarious)
			}
			if track.Percussion != tc.wantPercuss {
				t.Errorf("Percussion = %v, want %v", track.Percussion, tc.wantPercuss)
			}
		})
	}
}

func TestIsPercussionChannelForInstrument_Channel15IsOpenQuestion(t *testing.T) {
	if !IsPercussionChannelForInstrument(15) {
		t.Error("channel 15 should count as percussion for instrument discovery")
	}
	if IsDrumChannel(15) {
		t.Error("channel 15 should NOT count as the drum channel for metronome routing")
	}
	if !IsDrumChannel(9) {
		t.Error("channel 9 should count as the drum channel")
	}
}
