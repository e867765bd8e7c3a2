package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	chunks []string
	err    error

	prompts []string
}

type fakeTranscriber struct {
	text string
	err  error

	gotAudio    []byte
	gotFilename string
}

func (f *fakeLLM) Chat(_ context.Context, prompt string) iter.Seq2[string, error] {
	f.prompts = append(f.prompts, prompt)
	return func(yield func(string, error) bool) {
		for _, c := range f.chunks {
			if !yield(c, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	f.gotAudio = b
	f.gotFilename = filename
	return f.text, f.err
}

func newTestServer(llm LLM, tr Transcriber) *Server {
	s := NewServer(llm, tr, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC) }
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(&fakeLLM{}, nil).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rec.Body.String())
}

func TestChat(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"You can ", "ask for ", "a receipt."}}
	h := newTestServer(llm, nil).Routes()

	rec := postJSON(t, h, "/api/chat", models.ChatRequest{
		Message:             "Can my landlord keep my deposit?",
		ConversationHistory: "Student: hi\nAssistant: hello",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "You can ask for a receipt.", res.Response)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, `"""Can my landlord keep my deposit?"""`)
	assert.Contains(t, prompt, "Student: hi\nAssistant: hello")
	assert.Contains(t, prompt, "It is currently March 07, 2025.")
}

func TestChatTopicUsesDescription(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"Tenants have rights."}}
	h := newTestServer(llm, nil).Routes()

	rec := postJSON(t, h, "/api/chat", models.TopicRequest{
		TopicID:     "tenant-rights",
		Description: "Learn about your rights as a tenant and housing laws",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], `"""Learn about your rights as a tenant and housing laws"""`)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		llm        *fakeLLM
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "invalid json",
			llm:        &fakeLLM{},
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantDetail: "invalid request body",
		},
		{
			name:       "empty message without topic",
			llm:        &fakeLLM{},
			body:       `{"message":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "message is required",
		},
		{
			name:       "llm failure",
			llm:        &fakeLLM{chunks: []string{"partial"}, err: errors.New("quota exceeded")},
			body:       `{"message":"hello"}`,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(tt.llm, nil).Routes()

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var res models.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
			assert.Equal(t, tt.wantDetail, res.Detail)
		})
	}
}

func TestTranscribeRawBody(t *testing.T) {
	tr := &fakeTranscriber{text: "I got a ticket"}
	h := newTestServer(&fakeLLM{}, tr).Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewReader([]byte("RIFFdata")))
	req.Header.Set("Content-Type", "audio/wav")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res models.TranscribeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "I got a ticket", res.Transcription)
	assert.Equal(t, []byte("RIFFdata"), tr.gotAudio)
	assert.Equal(t, "recording.wav", tr.gotFilename)
}

func TestTranscribeMultipart(t *testing.T) {
	tr := &fakeTranscriber{text: "my car was hit"}
	h := newTestServer(&fakeLLM{}, tr).Routes()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(models.AudioFormField, "voice.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("webm-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("webm-bytes"), tr.gotAudio)
	assert.Equal(t, "voice.webm", tr.gotFilename)
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name        string
		transcriber Transcriber
		body        []byte
		wantStatus  int
	}{
		{
			name:       "not configured",
			body:       []byte("abc"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:        "empty audio",
			transcriber: &fakeTranscriber{},
			body:        nil,
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "too large",
			transcriber: &fakeTranscriber{},
			body:        bytes.Repeat([]byte("a"), 2048),
			wantStatus:  http.StatusRequestEntityTooLarge,
		},
		{
			name:        "transcriber failure",
			transcriber: &fakeTranscriber{err: errors.New("model unavailable")},
			body:        []byte("abc"),
			wantStatus:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeLLM{}, tt.transcriber).Routes()

			req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "audio/wav")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeLLM{}, nil).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAudioFilename(t *testing.T) {
	assert.Equal(t, "recording.webm", audioFilename("audio/webm;codecs=opus"))
	assert.Equal(t, "recording.ogg", audioFilename("audio/ogg"))
	assert.Equal(t, "recording.wav", audioFilename(""))
}

func TestContextPrompt(t *testing.T) {
	p := ContextPrompt("I was pulled over", "", time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, p, "It is currently December 01, 2024.")
	assert.Contains(t, p, `"""I was pulled over"""`)
	assert.Contains(t, p, "ask ONE clear follow-up question")
}
