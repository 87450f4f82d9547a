package midi

import (
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// EventKind classifies a decoded Event (C2). Meta and sysex events carry no
// channel; channel events always carry one in [0,15].
type EventKind int

const (
	KindChannel EventKind = iota
	KindMeta
	KindSysex
)

// Meta-type bytes recognized by the decoder.
const (
	metaTrackName    = 0x03
	metaText         = 0x01
	metaLyric        = 0x05
	metaMarker       = 0x06
	metaTempo        = 0x51
	metaTimeSignature = 0x58
	metaEndOfTrack   = 0x2F
)

// Event is one decoded MIDI event plus the delta-pulses that preceded it.
type Event struct {
	Delta   uint32
	Kind    EventKind
	Status  byte
	Channel uint8
	Data1   byte
	Data2   byte

	MetaType byte
	Text     string
	Raw      []byte

	// TempoMicros is microseconds-per-quarter-note, valid when MetaType == metaTempo.
	TempoMicros uint32
	// Numerator/Denominator are valid when MetaType == metaTimeSignature.
	// Denominator is already expanded from its power-of-2 encoding (e.g. 2 -> 4).
	Numerator   uint8
	Denominator uint8

	// Message mirrors this event as a gitlab.com/gomidi/midi/v2 message,
	// for callers that want the library's own accessors/encoding. It is set
	// for channel events and for track-name, text, lyric, marker, tempo,
	// time-signature and end-of-track meta events; it is nil for sysex
	// events and for other meta types.
	Message smf.Message
}

// IsNoteOn reports whether this channel event is a note-on with velocity > 0.
// A note-on with velocity 0 is semantically a note-off (§4.2).
func (e *Event) IsNoteOn() bool {
	return e.Kind == KindChannel && e.Status&0xF0 == 0x90 && e.Data2 > 0
}

// IsNoteOff reports whether this channel event ends a note (real note-off,
// or note-on with velocity 0).
func (e *Event) IsNoteOff() bool {
	if e.Kind != KindChannel {
		return false
	}
	hi := e.Status & 0xF0
	return hi == 0x80 || (hi == 0x90 && e.Data2 == 0)
}

// IsProgramChange reports whether this is a program-change channel event.
func (e *Event) IsProgramChange() bool {
	return e.Kind == KindChannel && e.Status&0xF0 == 0xC0
}

// IsTempo reports whether this is a tempo-change meta event.
func (e *Event) IsTempo() bool {
	return e.Kind == KindMeta && e.MetaType == metaTempo
}

// IsTimeSignature reports whether this is a time-signature meta event.
func (e *Event) IsTimeSignature() bool {
	return e.Kind == KindMeta && e.MetaType == metaTimeSignature
}

// decodeEvent reads one event from r, given the previous channel status byte
// for running-status continuation (0 if none yet). Returns the event and the
// status byte to carry forward.
func decodeEvent(r *byteReader, runningStatus byte) (*Event, byte, error) {
	delta, err := r.readVLQ()
	if err != nil {
		return nil, runningStatus, err
	}

	peek, err := r.peekByte()
	if err != nil {
		return nil, runningStatus, err
	}

	var status byte
	if peek&0x80 != 0 {
		status, err = r.readByte()
		if err != nil {
			return nil, runningStatus, err
		}
	} else {
		status = runningStatus
	}

	switch {
	case status == 0xFF:
		ev, _, err := decodeMeta(r, delta)
		return ev, runningStatus, err
	case status == 0xF0 || status == 0xF7:
		ev, err := decodeSysex(r, delta, status)
		return ev, runningStatus, err
	case status&0xF0 >= 0x80 && status&0xF0 <= 0xE0:
		ev, err := decodeChannel(r, delta, status)
		return ev, status, err
	default:
		return nil, status, newLoadErrorf(BadType0Midi, "unrecognized status byte 0x%02X", status)
	}
}

func decodeMeta(r *byteReader, delta uint32) (*Event, byte, error) {
	metaType, err := r.readByte()
	if err != nil {
		return nil, 0xFF, err
	}
	length, err := r.readVLQ()
	if err != nil {
		return nil, 0xFF, err
	}
	payload, err := r.readBytes(int(length))
	if err != nil {
		return nil, 0xFF, err
	}

	ev := &Event{Delta: delta, Kind: KindMeta, Status: 0xFF, MetaType: metaType, Raw: payload}

	switch metaType {
	case metaTrackName, metaText, metaLyric, metaMarker:
		ev.Text = string(payload)
		switch metaType {
		case metaTrackName:
			ev.Message = smf.MetaTrackSequenceName(ev.Text)
		case metaLyric:
			ev.Message = smf.MetaLyric(ev.Text)
		case metaMarker:
			ev.Message = smf.MetaMarker(ev.Text)
		default:
			ev.Message = smf.MetaText(ev.Text)
		}
	case metaTempo:
		if len(payload) >= 3 {
			ev.TempoMicros = uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
			ev.Message = smf.MetaTempo(microsToBPM(ev.TempoMicros))
		}
	case metaTimeSignature:
		if len(payload) >= 2 {
			ev.Numerator = payload[0]
			ev.Denominator = 1 << payload[1]
			clocksPerClick, notated32nd := byte(24), byte(8)
			if len(payload) >= 4 {
				clocksPerClick, notated32nd = payload[2], payload[3]
			}
			ev.Message = smf.MetaTimeSig(ev.Numerator, ev.Denominator, clocksPerClick, notated32nd)
		}
	case metaEndOfTrack:
		ev.Message = smf.EOT
	}

	return ev, 0xFF, nil
}

func decodeSysex(r *byteReader, delta uint32, status byte) (*Event, error) {
	length, err := r.readVLQ()
	if err != nil {
		return nil, err
	}
	payload, err := r.readBytes(int(length))
	if err != nil {
		return nil, err
	}
	return &Event{Delta: delta, Kind: KindSysex, Status: status, Raw: payload}, nil
}

func decodeChannel(r *byteReader, delta uint32, status byte) (*Event, error) {
	channel := status & 0x0F
	hi := status & 0xF0

	data1, err := r.readByte()
	if err != nil {
		return nil, err
	}

	ev := &Event{Delta: delta, Kind: KindChannel, Status: status, Channel: channel, Data1: data1}

	switch hi {
	case 0x80:
		data2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		ev.Data2 = data2
		ev.Message = midi.NoteOff(channel, data1)
	case 0x90:
		data2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		ev.Data2 = data2
		if data2 == 0 {
			ev.Message = midi.NoteOff(channel, data1)
		} else {
			ev.Message = midi.NoteOn(channel, data1, data2)
		}
	case 0xA0:
		data2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		ev.Data2 = data2
		ev.Message = midi.PolyAfterTouch(channel, data1, data2)
	case 0xB0:
		data2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		ev.Data2 = data2
		ev.Message = midi.ControlChange(channel, data1, data2)
	case 0xC0:
		ev.Message = midi.ProgramChange(channel, data1)
	case 0xD0:
		ev.Message = midi.AfterTouch(channel, data1)
	case 0xE0:
		data2, err := r.readByte()
		if err != nil {
			return nil, err
		}
		ev.Data2 = data2
		rel := int16(uint16(data1)|uint16(data2)<<7) - 0x2000
		ev.Message = midi.Pitchbend(channel, rel)
	default:
		return nil, newLoadErrorf(BadType0Midi, "unhandled channel status 0x%02X", status)
	}

	return ev, nil
}

// microsToBPM converts microseconds-per-quarter-note to beats-per-minute, as
// required by smf.MetaTempo's BPM-based constructor.
func microsToBPM(usecPerQN uint32) float64 {
	if usecPerQN == 0 {
		return 120.0
	}
	return 60_000_000.0 / float64(usecPerQN)
}

// bpmToMicros is the inverse of microsToBPM, used by Metronome.InitMeter to
// turn a BPM argument into microseconds-per-quarter-note.
func bpmToMicros(bpm float64) uint32 {
	if bpm <= 0 {
		return 500000
	}
	return uint32(60_000_000.0 / bpm)
}
