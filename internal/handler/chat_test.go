package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoki/docquery/internal/extract"
	"github.com/aoki/docquery/internal/gdrive"
	"github.com/aoki/docquery/internal/llm"
	"github.com/aoki/docquery/internal/model"
)

// llmBackend records the last chat request and replies with a fixed message.
func llmBackend(t *testing.T, reply string, gotMessages *[]llm.Message) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*gotMessages = req.Messages

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func chatRequestBody(t *testing.T, message string, history []llm.Message) string {
	t.Helper()
	b, err := json.Marshal(chatRequest{Message: message, History: history})
	require.NoError(t, err)
	return string(b)
}

func TestChatGroundsReplyOnDocuments(t *testing.T) {
	var gotMessages []llm.Message
	srv := llmBackend(t, "the answer", &gotMessages)
	defer srv.Close()

	h := NewChatHandler(
		newDocumentService(driveWithFiles(t), nil),
		llm.NewClient(llm.Config{BaseURL: srv.URL, Model: "test"}),
		testJWTSecret,
	)

	req := authedRequest(t, "user-1")
	req.Body = chatRequestBody(t, "what are the numbers?", []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	})

	resp, err := h.Chat(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body chatResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "the answer", body.Reply)

	// system prompt + 2 history turns + the new question
	require.Len(t, gotMessages, 4)
	assert.Equal(t, llm.RoleSystem, gotMessages[0].Role)
	assert.Contains(t, gotMessages[0].Content, "Budget.txt")
	assert.Contains(t, gotMessages[0].Content, "quarterly numbers")
	assert.Equal(t, "earlier question", gotMessages[1].Content)
	assert.Equal(t, "what are the numbers?", gotMessages[3].Content)
}

func TestChatTruncatesLongDocuments(t *testing.T) {
	var gotMessages []llm.Message
	srv := llmBackend(t, "ok", &gotMessages)
	defer srv.Close()

	fake := gdrive.NewFake()
	fake.Add(&gdrive.FakeFile{
		Meta: model.RemoteFile{
			ID:           "big",
			Name:         "big.txt",
			MIMEType:     extract.MIMEText,
			ModifiedTime: time.Now(),
		},
		Content: []byte(strings.Repeat("x", maxExcerptLen+500)),
	})

	h := NewChatHandler(
		newDocumentService(fake, nil),
		llm.NewClient(llm.Config{BaseURL: srv.URL, Model: "test"}),
		testJWTSecret,
	)

	req := authedRequest(t, "user-1")
	req.Body = chatRequestBody(t, "hi", nil)

	resp, err := h.Chat(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	system := gotMessages[0].Content
	assert.Contains(t, system, strings.Repeat("x", maxExcerptLen)+"...")
	assert.NotContains(t, system, strings.Repeat("x", maxExcerptLen+1))
}

func TestExcerptKeepsRuneBoundaries(t *testing.T) {
	// Three bytes per rune, so the byte cap falls mid-rune.
	long := strings.Repeat("日", maxExcerptLen)

	got := excerpt(long, maxExcerptLen)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxExcerptLen+len("..."))

	assert.Equal(t, "short", excerpt("short", maxExcerptLen))
	assert.Equal(t, strings.Repeat("a", maxExcerptLen), excerpt(strings.Repeat("a", maxExcerptLen), maxExcerptLen))
}

func TestChatEmptyMessage(t *testing.T) {
	h := NewChatHandler(
		newDocumentService(driveWithFiles(t), nil),
		llm.NewClient(llm.Config{BaseURL: "http://unused", Model: "test"}),
		testJWTSecret,
	)

	req := authedRequest(t, "user-1")
	req.Body = chatRequestBody(t, "   ", nil)

	resp, err := h.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatInvalidBody(t *testing.T) {
	h := NewChatHandler(
		newDocumentService(driveWithFiles(t), nil),
		llm.NewClient(llm.Config{BaseURL: "http://unused", Model: "test"}),
		testJWTSecret,
	)

	req := authedRequest(t, "user-1")
	req.Body = "{not json"

	resp, err := h.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
