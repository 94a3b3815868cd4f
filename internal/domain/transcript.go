package domain

import (
	"fmt"
	"time"
)

// ISOTimestampLayout matches the millisecond UTC form used in transcripts.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z"

const DialogueSentinel = "⟡ Ready when you are."

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISOTimestampLayout)
}

func TranscriptName(date string, number int) string {
	return fmt.Sprintf("%s_session_%03d.md", date, number)
}

func TranscriptRelPath(filename string) string {
	return SessionsDir + "/" + filename
}

func FormatDialogue(timestamp, userText, responseText string) string {
	return fmt.Sprintf("## %s\n### User\n%s\n\n### Reflection\n%s", timestamp, userText, responseText)
}
