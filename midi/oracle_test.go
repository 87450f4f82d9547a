package midi

import "testing"

func TestTempoOracle_ConstantTempoExactMultiples(t *testing.T) {
	const ppqn = 480
	const tau = 428571 // an arbitrary non-round tempo

	tempoTrack := &Track{
		Events: []*Event{{Kind: KindMeta, MetaType: metaTempo, TempoMicros: tau}},
		Pulses: []uint32{0},
	}
	oracle := newTempoOracle(ppqn, tempoTrack)

	if got := oracle.pulseToMicros(0); got != 0 {
		t.Fatalf("pulseToMicros(0) = %d, want 0", got)
	}
	for k := int64(1); k <= 5; k++ {
		p := uint32(k * ppqn)
		want := k * tau
		if got := oracle.pulseToMicros(p); got != want {
			t.Errorf("pulseToMicros(%d*PPQN) = %d, want %d", k, got, want)
		}
	}
}

func TestTempoOracle_DefaultsTo120BPMBeforeFirstEvent(t *testing.T) {
	oracle := newTempoOracle(96, &Track{})
	if got := oracle.pulseToMicros(96); got != defaultTempoMicros {
		t.Fatalf("pulseToMicros(96) with no tempo events = %d, want %d", got, defaultTempoMicros)
	}
}

func TestTempoOracle_Monotonic(t *testing.T) {
	tempoTrack := &Track{
		Events: []*Event{
			{Kind: KindMeta, MetaType: metaTempo, TempoMicros: 500000},
			{Kind: KindMeta, MetaType: metaTempo, TempoMicros: 250000},
		},
		Pulses: []uint32{0, 480},
	}
	oracle := newTempoOracle(480, tempoTrack)

	prev := int64(-1)
	for p := uint32(0); p <= 1000; p += 50 {
		got := oracle.pulseToMicros(p)
		if got < prev {
			t.Fatalf("pulseToMicros not monotonic at pulse %d: %d < %d", p, got, prev)
		}
		prev = got
	}
}
