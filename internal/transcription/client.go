// Package transcription submits recorded audio to the speech vendor and
// normalizes the response into a word-level transcript model.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"lexscribe/deposition-service/internal/metrics"
)

// ErrTranscriptionFailed is the single opaque error surfaced for any upstream
// failure. Retries are the caller's responsibility.
var ErrTranscriptionFailed = errors.New("failed to transcribe audio")

type Options struct {
	Diarize     bool     `json:"diarize"`
	SmartFormat bool     `json:"smart_format"`
	Utterances  bool     `json:"utterances"`
	Punctuate   bool     `json:"punctuate"`
	Keywords    []string `json:"keywords,omitempty"`
}

type Word struct {
	Text       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    *int    `json:"speaker,omitempty"`
}

type Speaker struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type Result struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Words      []Word    `json:"words"`
	Speakers   []Speaker `json:"speakers,omitempty"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewClient builds a vendor client. No client-side timeout is set on the
// transcription call itself; it runs until the vendor responds or the
// transport gives up.
func NewClient(baseURL, apiKey string, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
		metrics: m,
	}
}

// vendor response, trimmed to the fields we read
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []Word  `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe blocks until the vendor returns the full result. There is no
// streaming or partial-result path.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string, opts Options) (Result, error) {
	start := time.Now()
	result, err := c.transcribe(ctx, audio, mimeType, opts)
	if c.metrics != nil {
		c.metrics.ObserveTranscription(time.Since(start), err == nil)
	}
	return result, err
}

func (c *Client) transcribe(ctx context.Context, audio []byte, mimeType string, opts Options) (Result, error) {
	query := url.Values{}
	query.Set("diarize", strconv.FormatBool(opts.Diarize))
	query.Set("smart_format", strconv.FormatBool(opts.SmartFormat))
	query.Set("utterances", strconv.FormatBool(opts.Utterances))
	query.Set("punctuate", strconv.FormatBool(opts.Punctuate))
	for _, keyword := range opts.Keywords {
		query.Add("keywords", keyword)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/listen?"+query.Encode(), bytes.NewReader(audio))
	if err != nil {
		log.Printf("transcription: request build failed: %v", err)
		return Result{}, ErrTranscriptionFailed
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("transcription: vendor call failed: %v", err)
		return Result{}, ErrTranscriptionFailed
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("transcription: response read failed: %v", err)
		return Result{}, ErrTranscriptionFailed
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("transcription: vendor status %d: %s", resp.StatusCode, truncate(raw, 200))
		return Result{}, ErrTranscriptionFailed
	}

	var payload listenResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("transcription: response decode failed: %v", err)
		return Result{}, ErrTranscriptionFailed
	}
	if len(payload.Results.Channels) == 0 || len(payload.Results.Channels[0].Alternatives) == 0 {
		log.Printf("transcription: vendor returned no alternatives")
		return Result{}, ErrTranscriptionFailed
	}

	top := payload.Results.Channels[0].Alternatives[0]
	return Result{
		Text:       top.Transcript,
		Confidence: top.Confidence,
		Words:      top.Words,
		Speakers:   DeriveSpeakers(top.Words),
	}, nil
}

// DeriveSpeakers builds the speaker set from diarized word labels, ordered by
// id. Names are left empty for the user to fill in before export.
func DeriveSpeakers(words []Word) []Speaker {
	seen := map[int]bool{}
	for _, word := range words {
		if word.Speaker != nil {
			seen[*word.Speaker] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	speakers := make([]Speaker, 0, len(ids))
	for _, id := range ids {
		speakers = append(speakers, Speaker{ID: id})
	}
	return speakers
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
