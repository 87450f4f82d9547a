package midi

// General MIDI percussion key numbers used by the metronome's fixed click
// output (§6). The four keys the metronome emits are named here, plus one
// unused entry (acoustic snare); see
// https://computermusicresource.com/GM.Percussion.KeyMap.html for the full
// table.
const (
	gmSideStick    = 37 // 0x25 - knock-on-stick prelude / all-silence
	gmAcousticSnare = 38 // 0x26 (unused)
	gmHighTom      = 50 // 0x32 - weak beat
	gmCowbell      = 56 // 0x38 - note-off only, on strong beats and all-silence
	gmOpenTriangle = 81 // 0x51 - strong beat
)
