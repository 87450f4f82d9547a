package midi

import "sort"

// normalizeTempoAndMeter performs the two-pass destructive extraction (C5):
// every time-signature event is pulled out of every track into a synthetic
// meter track, then every tempo-change event is pulled out into a synthetic
// tempo track. Both are sorted and de-duplicated by absolute pulse position.
// After this call, no original track contains a tempo-change or
// time-signature event (invariant 5, §8).
func normalizeTempoAndMeter(tracks []*Track) (meterTrack, tempoTrack *Track) {
	meterTrack = extractMetaEvents(tracks, func(e *Event) bool { return e.IsTimeSignature() })
	meterTrack.Name = "meter"
	tempoTrack = extractMetaEvents(tracks, func(e *Event) bool { return e.IsTempo() })
	tempoTrack.Name = "tempo"
	return meterTrack, tempoTrack
}

// extractMetaEvents removes every event matching `match` from every track in
// place (adjusting the following event's delta to preserve its absolute
// pulse position), collects them keyed by absolute pulse into an ordered
// map (last-seen wins on duplicate pulses), and returns a new synthetic
// track replaying them in pulse order with deltas recomputed.
func extractMetaEvents(tracks []*Track, match func(*Event) bool) *Track {
	byPulse := make(map[uint32]*Event)
	var order []uint32

	for _, t := range tracks {
		var keptEvents []*Event
		var keptPulses []uint32
		var carryDelta uint32

		for i, ev := range t.Events {
			if match(ev) {
				pulse := t.Pulses[i]
				if _, seen := byPulse[pulse]; !seen {
					order = append(order, pulse)
				}
				byPulse[pulse] = ev
				carryDelta += ev.Delta
				continue
			}
			if carryDelta > 0 {
				clone := *ev
				clone.Delta += carryDelta
				ev = &clone
				carryDelta = 0
			}
			keptEvents = append(keptEvents, ev)
			keptPulses = append(keptPulses, t.Pulses[i])
		}

		t.Events = keptEvents
		t.Pulses = keptPulses
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	synthetic := &Track{}
	var lastPulse uint32
	for i, pulse := range order {
		ev := byPulse[pulse]
		clone := *ev
		if i == 0 {
			clone.Delta = pulse
		} else {
			clone.Delta = pulse - lastPulse
		}
		synthetic.Events = append(synthetic.Events, &clone)
		synthetic.Pulses = append(synthetic.Pulses, pulse)
		lastPulse = pulse
	}

	return synthetic
}
