package audio

import "sync/atomic"

// ExportPhase is the phase of an in-flight export.
type ExportPhase int

const (
	NotExporting ExportPhase = iota
	WritingAudio
	AppendingDecay
	WritingToDisk
	Done
)

func (p ExportPhase) String() string {
	switch p {
	case NotExporting:
		return "not exporting"
	case WritingAudio:
		return "writing audio"
	case AppendingDecay:
		return "appending decay"
	case WritingToDisk:
		return "writing to disk"
	case Done:
		return "done"
	}
	return "unknown"
}

// ExportState is the progress of an in-flight export. TotalSamples and
// ExportedSamples are only meaningful in the WritingAudio phase.
type ExportState struct {
	Phase           ExportPhase
	TotalSamples    uint64
	ExportedSamples uint64
}

// SharedExportState is written by the export worker and polled read-only by
// the foreground loop, both to drive progress display and to gate new
// export requests. The foreground only writes it once, to initialize it
// when an export request is accepted.
type SharedExportState struct {
	p atomic.Pointer[ExportState]
}

func (s *SharedExportState) Get() ExportState {
	if v := s.p.Load(); v != nil {
		return *v
	}
	return ExportState{Phase: NotExporting}
}

func (s *SharedExportState) Set(state ExportState) {
	s.p.Store(&state)
}

// Exporting reports whether an export session is active.
func (s *SharedExportState) Exporting() bool {
	return s.Get().Phase != NotExporting
}
