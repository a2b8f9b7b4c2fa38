package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/aoki/docquery/internal/document"
	"github.com/aoki/docquery/internal/llm"
	"github.com/aoki/docquery/internal/model"
)

// maxExcerptLen caps how much of each document goes into the system prompt.
const maxExcerptLen = 4000

// ChatHandler answers questions grounded on the user's aggregated documents.
type ChatHandler struct {
	documents *document.Service
	llmClient *llm.Client
	jwtSecret string
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(documents *document.Service, llmClient *llm.Client, jwtSecret string) *ChatHandler {
	return &ChatHandler{documents: documents, llmClient: llmClient, jwtSecret: jwtSecret}
}

type chatRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return errorResponse(http.StatusUnauthorized, "Unauthorized"), nil
	}

	var body chatRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}
	if strings.TrimSpace(body.Message) == "" {
		return errorResponse(http.StatusBadRequest, "Message is required"), nil
	}

	docs, err := h.documents.GetAllDocuments(ctx, userID)
	if err != nil {
		return documentErrorResponse(userID, err), nil
	}

	messages := make([]llm.Message, 0, len(body.History)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: buildSystemPrompt(docs)})
	messages = append(messages, body.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: body.Message})

	reply, err := h.llmClient.Chat(ctx, messages)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("llm chat failed")
		return errorResponse(http.StatusInternalServerError, "Failed to generate a reply"), nil
	}

	return jsonResponse(http.StatusOK, chatResponse{Reply: reply}), nil
}

// buildSystemPrompt embeds an excerpt of every document so the model answers
// from the user's own content instead of general knowledge.
func buildSystemPrompt(docs []model.Document) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that answers questions based on the user's Google Drive documents. ")
	b.WriteString("Answer using only the documents below. If the answer is not in them, say so.\n\n")

	for _, doc := range docs {
		b.WriteString(fmt.Sprintf("--- Document: %s ---\n", doc.Name))
		b.WriteString(excerpt(doc.Content, maxExcerptLen))
		b.WriteString("\n\n")
	}
	return b.String()
}

// excerpt truncates s to at most n bytes, backing off to a rune boundary so
// multi-byte characters are never split.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
