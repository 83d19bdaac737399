// Package export serializes a word-level transcript, its speaker map, and the
// case metadata into downloadable files. It performs no network I/O.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lexscribe/deposition-service/internal/transcription"
)

type Format string

const (
	FormatDocx Format = "docx"
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

var (
	ErrMissingStyling    = errors.New("case styling is required")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// CaseDetails is attached at export time only; it has no lifecycle of its own.
type CaseDetails struct {
	Styling        string `json:"styling"`
	CauseNumber    string `json:"causeNumber,omitempty"`
	Court          string `json:"court,omitempty"`
	ProceedingType string `json:"proceedingType,omitempty"`
	ProceedingDate string `json:"proceedingDate,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type Options struct {
	Format        Format `json:"format"`
	SpeakerLabels bool   `json:"speakerLabels"`
	CustomHeader  string `json:"customHeader,omitempty"`
	CustomFooter  string `json:"customFooter,omitempty"`
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

var nonAlnumRx = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Export dispatches to the serializer selected by opts.Format.
func Export(words []transcription.Word, speakers []transcription.Speaker, details CaseDetails, opts Options) (File, error) {
	if strings.TrimSpace(details.Styling) == "" {
		return File{}, ErrMissingStyling
	}
	switch opts.Format {
	case FormatDocx:
		return exportDocx(words, speakers, details, opts)
	case FormatText:
		return exportText(words, speakers, details, opts)
	case FormatJSON:
		return exportJSON(words, speakers, details)
	case FormatSRT, FormatVTT:
		return exportCaptions(words, speakers, details, opts.Format)
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

func filename(details CaseDetails, ext string) string {
	base := strings.Trim(nonAlnumRx.ReplaceAllString(details.Styling, "_"), "_")
	return base + "_transcript." + ext
}

// SpeakerName resolves the display label for a speaker id, falling back to
// "Speaker <id>" when the speaker is unnamed or unknown.
func SpeakerName(speakers []transcription.Speaker, id int) string {
	for _, speaker := range speakers {
		if speaker.ID == id && speaker.Name != "" {
			return speaker.Name
		}
	}
	return fmt.Sprintf("Speaker %d", id)
}

func exportText(words []transcription.Word, speakers []transcription.Speaker, details CaseDetails, opts Options) (File, error) {
	var b strings.Builder
	if opts.CustomHeader != "" {
		b.WriteString(opts.CustomHeader + "\n\n")
	}
	b.WriteString(details.Styling + "\n")
	if details.CauseNumber != "" {
		b.WriteString("Cause No. " + details.CauseNumber + "\n")
	}
	b.WriteString("\n")

	// Speaker names are inserted at the first word of each contiguous run by
	// the same speaker, not on every word.
	currentSpeaker := -1
	for i, word := range words {
		if opts.SpeakerLabels && word.Speaker != nil && *word.Speaker != currentSpeaker {
			if i > 0 {
				b.WriteString("\n")
			}
			currentSpeaker = *word.Speaker
			b.WriteString(SpeakerName(speakers, currentSpeaker) + ": ")
		}
		b.WriteString(word.Text + " ")
	}

	if opts.CustomFooter != "" {
		b.WriteString("\n\n" + opts.CustomFooter)
	}

	return File{
		Name:        filename(details, "txt"),
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(b.String()),
	}, nil
}

type jsonMetadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	WordCount  int       `json:"wordCount"`
	Duration   float64   `json:"duration"`
}

type jsonDocument struct {
	CaseDetails CaseDetails             `json:"caseDetails"`
	Speakers    []transcription.Speaker `json:"speakers"`
	Words       []transcription.Word    `json:"words"`
	Metadata    jsonMetadata            `json:"metadata"`
}

func exportJSON(words []transcription.Word, speakers []transcription.Speaker, details CaseDetails) (File, error) {
	duration := 0.0
	if len(words) > 0 {
		duration = words[len(words)-1].End
	}
	if speakers == nil {
		speakers = []transcription.Speaker{}
	}
	if words == nil {
		words = []transcription.Word{}
	}
	doc := jsonDocument{
		CaseDetails: details,
		Speakers:    speakers,
		Words:       words,
		Metadata: jsonMetadata{
			ExportedAt: time.Now().UTC(),
			WordCount:  len(words),
			Duration:   duration,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filename(details, "json"),
		ContentType: "application/json",
		Data:        data,
	}, nil
}
