package export

import (
	"bytes"
	"time"

	"github.com/asticode/go-astisub"

	"lexscribe/deposition-service/internal/transcription"
)

// caption cue size for undiarized transcripts
const captionWordsPerCue = 10

func exportCaptions(words []transcription.Word, speakers []transcription.Speaker, details CaseDetails, format Format) (File, error) {
	subtitles := astisub.NewSubtitles()

	for _, cue := range buildCues(words) {
		item := &astisub.Item{
			StartAt: secondsToDuration(cue.start),
			EndAt:   secondsToDuration(cue.end),
		}
		text := cue.text
		if cue.speaker != nil {
			text = SpeakerName(speakers, *cue.speaker) + ": " + text
		}
		item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: text}}})
		subtitles.Items = append(subtitles.Items, item)
	}

	buf := &bytes.Buffer{}
	var ext, contentType string
	var err error
	switch format {
	case FormatSRT:
		ext, contentType = "srt", "text/srt"
		err = subtitles.WriteToSRT(buf)
	case FormatVTT:
		ext, contentType = "vtt", "text/vtt"
		err = subtitles.WriteToWebVTT(buf)
	}
	if err != nil {
		return File{}, err
	}

	return File{
		Name:        filename(details, ext),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}

type cue struct {
	start   float64
	end     float64
	text    string
	speaker *int
}

// buildCues groups words into cues: one cue per contiguous same-speaker run
// for diarized transcripts, fixed-size windows otherwise.
func buildCues(words []transcription.Word) []cue {
	var cues []cue
	var current *cue
	var wordsInCue int

	for i := range words {
		word := words[i]
		startNew := current == nil
		if !startNew {
			switch {
			case word.Speaker != nil && current.speaker != nil:
				startNew = *word.Speaker != *current.speaker
			case word.Speaker == nil && current.speaker == nil:
				startNew = wordsInCue >= captionWordsPerCue
			default:
				startNew = true
			}
		}
		if startNew {
			if current != nil {
				cues = append(cues, *current)
			}
			current = &cue{start: word.Start, end: word.End, text: word.Text, speaker: word.Speaker}
			wordsInCue = 1
			continue
		}
		current.end = word.End
		current.text += " " + word.Text
		wordsInCue++
	}
	if current != nil {
		cues = append(cues, *current)
	}
	return cues
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
