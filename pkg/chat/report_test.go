package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitReportExtractsAllSegments(t *testing.T) {
	in := "Hello --- REPORT START --- • A\n• B --- REPORT END --- Bye"

	split := SplitReport(in)

	require.NotNil(t, split.Report)
	assert.Equal(t, "Hello", split.PreText)
	assert.Equal(t, "• A\n• B", split.Report.Body)
	assert.Equal(t, "Bye", split.PostText)
}

func TestSplitReportNoMarkers(t *testing.T) {
	split := SplitReport("Just chatting")

	assert.Nil(t, split.Report)
	assert.Equal(t, "Just chatting", split.PreText)
	assert.Empty(t, split.PostText)
}

func TestSplitReportRoundTrip(t *testing.T) {
	pre := "  Before the summary. "
	body := "\n• Symptom: headache\n• Duration: 2 days\n"
	post := " Take care! "
	full := pre + ReportStartMarker + body + ReportEndMarker + post

	split := SplitReport(full)

	require.NotNil(t, split.Report)
	assert.Equal(t, "Before the summary.", split.PreText)
	assert.Equal(t, "• Symptom: headache\n• Duration: 2 days", split.Report.Body)
	assert.Equal(t, "Take care!", split.PostText)
}

func TestSplitReportIdempotentOnPlainText(t *testing.T) {
	first := SplitReport("Hello there, how are you feeling today?")
	require.Nil(t, first.Report)

	second := SplitReport(first.PreText)
	assert.Nil(t, second.Report)
	assert.Equal(t, first.PreText, second.PreText)
	assert.Empty(t, second.PostText)
}

func TestSplitReportEndBeforeStart(t *testing.T) {
	in := "a " + ReportEndMarker + " b " + ReportStartMarker + " c"

	split := SplitReport(in)

	assert.Nil(t, split.Report)
	assert.Equal(t, in, split.PreText)
}

func TestSplitReportMissingEnd(t *testing.T) {
	in := "a " + ReportStartMarker + " unfinished"

	split := SplitReport(in)

	assert.Nil(t, split.Report)
	assert.Equal(t, in, split.PreText)
}

// A second start marker before the end marker is absorbed into the body; the
// first occurrence of each marker always bounds the report.
func TestSplitReportDoubleStartAbsorbed(t *testing.T) {
	in := "x " + ReportStartMarker + " one " + ReportStartMarker + " two " + ReportEndMarker + " y"

	split := SplitReport(in)

	require.NotNil(t, split.Report)
	assert.Equal(t, "x", split.PreText)
	assert.Equal(t, "one "+ReportStartMarker+" two", split.Report.Body)
	assert.Equal(t, "y", split.PostText)
}

// "--- REPORT START --- REPORT END ---" contains an end-marker match that
// overlaps the start marker's trailing dashes. It must read as plain text,
// not as a report, and must never panic.
func TestSplitReportOverlappingMarkers(t *testing.T) {
	in := "--- REPORT START --- REPORT END ---"

	var split Split
	assert.NotPanics(t, func() { split = SplitReport(in) })

	assert.Nil(t, split.Report)
	assert.Equal(t, in, split.PreText)
	assert.Empty(t, split.PostText)
}

// An end marker that genuinely follows the start marker still pairs normally
// even when another partial match overlaps the start marker.
func TestSplitReportOverlapThenRealEnd(t *testing.T) {
	in := ReportStartMarker + " REPORT END --- • A " + ReportEndMarker + " bye"

	split := SplitReport(in)

	require.NotNil(t, split.Report)
	assert.Empty(t, split.PreText)
	assert.Equal(t, "REPORT END --- • A", split.Report.Body)
	assert.Equal(t, "bye", split.PostText)
}

func TestSplitReportAllSegmentsMayBeEmpty(t *testing.T) {
	split := SplitReport(ReportStartMarker + "  " + ReportEndMarker)

	require.NotNil(t, split.Report)
	assert.Empty(t, split.PreText)
	assert.Empty(t, split.Report.Body)
	assert.Empty(t, split.PostText)
}

func TestConversationalText(t *testing.T) {
	assert.Equal(t, "a\n\nb", Split{PreText: "a", PostText: "b"}.ConversationalText())
	assert.Equal(t, "a", Split{PreText: "a"}.ConversationalText())
	assert.Equal(t, "b", Split{PostText: "b"}.ConversationalText())
	assert.Empty(t, Split{}.ConversationalText())
}
