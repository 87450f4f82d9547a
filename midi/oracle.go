package midi

// defaultTempoMicros is 500,000 µs/quarter-note (120 BPM), used before any
// tempo-change event and when a song has no tempo track at all (§7).
const defaultTempoMicros = 500000

// tempoOracle converts absolute pulse counts to wall-clock microseconds by
// walking a sorted tempo track (C7). Construction is O(1); each query is
// O(T) in the number of tempo events, which the spec bounds at 0-100 for a
// typical song.
type tempoOracle struct {
	ppqn  uint32
	track *Track
}

func newTempoOracle(ppqn uint32, tempoTrack *Track) *tempoOracle {
	return &tempoOracle{ppqn: ppqn, track: tempoTrack}
}

// pulseToMicros returns the wall-clock microsecond offset of absolute pulse
// p, honoring every tempo change up to and including p (invariant 6, §8:
// pulseToMicros(0) == 0 and the function is monotonically non-decreasing).
func (o *tempoOracle) pulseToMicros(p uint32) int64 {
	var usec int64
	lastPulse := uint32(0)
	runningTempo := uint32(defaultTempoMicros)

	if o.track != nil {
		for i, e := range o.track.Events {
			pulse := o.track.Pulses[i]
			if p > pulse {
				usec += segmentMicros(pulse-lastPulse, runningTempo, o.ppqn)
				lastPulse = pulse
				runningTempo = e.TempoMicros
				continue
			}
			usec += segmentMicros(p-lastPulse, runningTempo, o.ppqn)
			return usec
		}
	}

	usec += segmentMicros(p-lastPulse, runningTempo, o.ppqn)
	return usec
}

// segmentMicros computes pulses * tempo / ppqn using a 64-bit intermediate,
// sufficient for songs up to ~10 hours at 960 PPQN (§5 numeric stability).
func segmentMicros(pulses uint32, tempoMicros uint32, ppqn uint32) int64 {
	if ppqn == 0 {
		return 0
	}
	return int64(pulses) * int64(tempoMicros) / int64(ppqn)
}
