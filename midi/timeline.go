package midi

// BeatWindow is the microsecond start/end of one beat within a bar (C6).
type BeatWindow struct {
	Index     int
	StartUsec int64
	EndUsec   int64
}

type meterSegment struct {
	startPulse uint32
	num        uint8
	denom      uint8
}

// coalesceMeterSegments collapses consecutive meter events with identical
// (numerator, denominator) into single segments (C6).
func coalesceMeterSegments(meterTrack *Track) []meterSegment {
	var segments []meterSegment
	for i, ev := range meterTrack.Events {
		pulse := meterTrack.Pulses[i]
		if len(segments) > 0 {
			last := segments[len(segments)-1]
			if last.num == ev.Numerator && last.denom == ev.Denominator {
				continue
			}
		}
		segments = append(segments, meterSegment{startPulse: pulse, num: ev.Numerator, denom: ev.Denominator})
	}
	return segments
}

// pulsesPerBar computes 4 * PPQN * numerator / denominator, the pulse
// length of one bar in the given meter (GLOSSARY: Bar).
func pulsesPerBar(ppqn uint32, num, denom uint8) uint32 {
	if denom == 0 {
		denom = 4
	}
	return uint32(4 * uint64(ppqn) * uint64(num) / uint64(denom))
}

// beatWindowsForBar computes the per-beat start/end pulses within a bar
// starting at barPulse, for a meter of `num` beats each `4*PPQN/denom`
// pulses long, converting each boundary to microseconds via oracle.
func beatWindowsForBar(oracle *tempoOracle, ppqn uint32, barPulse uint32, num, denom uint8) []BeatWindow {
	if denom == 0 {
		denom = 4
	}
	windows := make([]BeatWindow, 0, num)
	for j := uint8(0); j < num; j++ {
		startPulse := barPulse + uint32(4*uint64(ppqn)*uint64(j)/uint64(denom))
		endPulse := barPulse + uint32(4*uint64(ppqn)*uint64(j+1)/uint64(denom))
		windows = append(windows, BeatWindow{
			Index:     int(j),
			StartUsec: oracle.pulseToMicros(startPulse),
			EndUsec:   oracle.pulseToMicros(endPulse),
		})
	}
	return windows
}

// buildBarTimeline precomputes bar starts (pulses + microseconds) and each
// bar's per-beat window list (C6). If meterTrack is empty, the timeline is
// empty and callers must tolerate that (§4.6 edge case).
func buildBarTimeline(meterTrack *Track, oracle *tempoOracle, ppqn uint32, lastNoteOffPulse uint32) (barPulses []uint32, barUsecs []int64, barBeats [][]BeatWindow) {
	segments := coalesceMeterSegments(meterTrack)
	if len(segments) == 0 {
		return nil, nil, nil
	}

	emit := func(barPulse uint32, num, denom uint8) {
		barPulses = append(barPulses, barPulse)
		barUsecs = append(barUsecs, oracle.pulseToMicros(barPulse))
		barBeats = append(barBeats, beatWindowsForBar(oracle, ppqn, barPulse, num, denom))
	}

	cursor := segments[0].startPulse
	for i, seg := range segments {
		perBar := pulsesPerBar(ppqn, seg.num, seg.denom)
		if perBar == 0 {
			continue
		}
		var boundary uint32
		hasBoundary := i+1 < len(segments)
		if hasBoundary {
			boundary = segments[i+1].startPulse
		}

		if hasBoundary {
			for cursor < boundary {
				emit(cursor, seg.num, seg.denom)
				cursor += perBar
			}
		} else {
			for cursor <= lastNoteOffPulse {
				emit(cursor, seg.num, seg.denom)
				cursor += perBar
			}
		}
	}

	// Sentinel bar past the last note-off, giving the song a well-defined end.
	last := segments[len(segments)-1]
	emit(cursor, last.num, last.denom)

	return barPulses, barUsecs, barBeats
}

// reservedBarCount returns the count of bars whose start pulse is ≤ the
// first note-on pulse minus one (§4.6 edge case).
func reservedBarCount(barPulses []uint32, firstNoteOnPulse uint32) int {
	if firstNoteOnPulse == 0 {
		return 0
	}
	threshold := firstNoteOnPulse - 1
	count := 0
	for _, p := range barPulses {
		if p <= threshold {
			count++
		}
	}
	return count
}
