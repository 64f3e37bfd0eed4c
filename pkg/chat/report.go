package chat

import "strings"

// Sentinel markers delimiting the structured report segment inside a model
// reply. Matching is case-sensitive and positional: the first occurrence of
// each marker is used, and the end marker must appear strictly after the
// start marker.
const (
	ReportStartMarker = "--- REPORT START ---"
	ReportEndMarker   = "--- REPORT END ---"
)

// Report is the structured end-of-session summary extracted from a model
// reply. It is transient state: replaced on every reply and cleared when a
// new session starts.
type Report struct {
	Body string `json:"body"`
}

// Split is the result of dividing a raw model reply into conversational text
// and an optional report. All segments are trimmed and may independently be
// empty.
type Split struct {
	PreText  string
	Report   *Report
	PostText string
}

// SplitReport divides raw model output around the report sentinel markers.
// When either marker is missing, or no end marker appears after the full
// start marker, the whole input is treated as plain conversational text. The
// end marker is searched for only past the start marker, so a match that
// merely overlaps the start marker's trailing dashes never counts. A repeated
// start marker before the end marker is absorbed into the report body; the
// first occurrence of each marker always wins.
func SplitReport(raw string) Split {
	start := strings.Index(raw, ReportStartMarker)
	if start == -1 {
		return Split{PreText: strings.TrimSpace(raw)}
	}

	bodyStart := start + len(ReportStartMarker)
	end := strings.Index(raw[bodyStart:], ReportEndMarker)
	if end == -1 {
		return Split{PreText: strings.TrimSpace(raw)}
	}
	end += bodyStart

	return Split{
		PreText:  strings.TrimSpace(raw[:start]),
		Report:   &Report{Body: strings.TrimSpace(raw[bodyStart:end])},
		PostText: strings.TrimSpace(raw[end+len(ReportEndMarker):]),
	}
}

// ConversationalText joins the pre and post segments into the text shown in
// the transcript when the report body is stripped out.
func (s Split) ConversationalText() string {
	switch {
	case s.PreText != "" && s.PostText != "":
		return s.PreText + "\n\n" + s.PostText
	case s.PreText != "":
		return s.PreText
	default:
		return s.PostText
	}
}
