package midi

import "fmt"

// ErrorKind enumerates the fatal load-time error categories (C12). Loader
// errors are never partial: a failed load returns a nil *Song.
type ErrorKind int

const (
	BadFilename ErrorKind = iota
	NoHeader
	UnknownHeaderType
	BadHeaderSize
	Type2MidiNotSupported
	BadType0Midi
	SMPTETimingNotImplemented
	TrackHeaderTooShort
	BadTrackHeaderType
	TrackTooShort
	UnexpectedEndOfStream
	UnresolvedNoteEvents // unused by policy; note pairing never fails a load
)

func (k ErrorKind) String() string {
	switch k {
	case BadFilename:
		return "bad filename"
	case NoHeader:
		return "no header"
	case UnknownHeaderType:
		return "unknown header type"
	case BadHeaderSize:
		return "bad header size"
	case Type2MidiNotSupported:
		return "type 2 midi not supported"
	case BadType0Midi:
		return "bad type 0 midi"
	case SMPTETimingNotImplemented:
		return "SMPTE timing not implemented"
	case TrackHeaderTooShort:
		return "track header too short"
	case BadTrackHeaderType:
		return "bad track header type"
	case TrackTooShort:
		return "track too short"
	case UnexpectedEndOfStream:
		return "unexpected end of stream"
	case UnresolvedNoteEvents:
		return "unresolved note events"
	default:
		return "unknown error"
	}
}

// LoadError wraps an ErrorKind with the offset or detail that triggered it.
type LoadError struct {
	Kind   ErrorKind
	Detail string
}

func (e *LoadError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newLoadError(kind ErrorKind, detail string) *LoadError {
	return &LoadError{Kind: kind, Detail: detail}
}

func newLoadErrorf(kind ErrorKind, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
