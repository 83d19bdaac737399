package transcription

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listenPayload = `{
	"results": {
		"channels": [{
			"alternatives": [{
				"transcript": "Please state your name. Dana Ruiz.",
				"confidence": 0.97,
				"words": [
					{"word": "Please", "start": 0.0, "end": 0.4, "confidence": 0.99, "speaker": 0},
					{"word": "state", "start": 0.4, "end": 0.7, "confidence": 0.98, "speaker": 0},
					{"word": "Dana", "start": 1.8, "end": 2.1, "confidence": 0.95, "speaker": 1},
					{"word": "Ruiz.", "start": 2.1, "end": 2.5, "confidence": 0.96, "speaker": 1}
				]
			}]
		}]
	}
}`

func TestTranscribeSuccess(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/listen", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listenPayload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "dg-key", nil)
	result, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav", Options{
		Diarize:     true,
		SmartFormat: true,
		Punctuate:   true,
		Keywords:    []string{"Ruiz", "Brazos"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Token dg-key", gotAuth)
	assert.Equal(t, "audio/wav", gotContentType)
	assert.Equal(t, []byte("fake-audio"), gotBody)
	assert.Equal(t, []string{"true"}, gotQuery["diarize"])
	assert.Equal(t, []string{"true"}, gotQuery["smart_format"])
	assert.Equal(t, []string{"false"}, gotQuery["utterances"])
	assert.Equal(t, []string{"true"}, gotQuery["punctuate"])
	assert.Equal(t, []string{"Ruiz", "Brazos"}, gotQuery["keywords"])

	assert.Equal(t, "Please state your name. Dana Ruiz.", result.Text)
	assert.Equal(t, 0.97, result.Confidence)
	require.Len(t, result.Words, 4)
	assert.Equal(t, "Please", result.Words[0].Text)
	require.NotNil(t, result.Words[0].Speaker)
	assert.Equal(t, 0, *result.Words[0].Speaker)

	require.Len(t, result.Speakers, 2)
	assert.Equal(t, 0, result.Speakers[0].ID)
	assert.Equal(t, 1, result.Speakers[1].ID)
}

func TestTranscribeVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg":"bad audio"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "dg-key", nil)
	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav", Options{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "dg-key", nil)
	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav", Options{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestTranscribeEmptyChannels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "dg-key", nil)
	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav", Options{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestTranscribeConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "dg-key", nil)
	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav", Options{})
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestDeriveSpeakers(t *testing.T) {
	one, zero := 1, 0
	words := []Word{
		{Text: "a", Speaker: &one},
		{Text: "b", Speaker: &zero},
		{Text: "c", Speaker: &one},
		{Text: "d"},
	}
	speakers := DeriveSpeakers(words)
	require.Len(t, speakers, 2)
	assert.Equal(t, 0, speakers[0].ID)
	assert.Equal(t, 1, speakers[1].ID)

	assert.Nil(t, DeriveSpeakers([]Word{{Text: "undiarized"}}))
}
