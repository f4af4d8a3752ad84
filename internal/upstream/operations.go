package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/studykit/studygate/internal/domain"
)

// summaryFallback is returned when the upstream answers with a
// well-formed but empty completion. Summarization degrades gracefully;
// a malformed payload does not.
const summaryFallback = "No summary could be generated for this content."

const summarizePrompt = "You are a study assistant. Summarize the provided course material " +
	"in clear, concise prose. Keep the key concepts and drop filler."

const flashcardsPrompt = "You are a study assistant. Generate flashcards for the provided " +
	"course material. Respond with a JSON object of the form " +
	`{"flashcards":[{"id":1,"question":"...","answer":"..."}]}` +
	" and nothing else. Each card must have a non-empty question and answer."

// Summarize asks the upstream for a summary of content and returns the
// trimmed text.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: summarizePrompt},
			{Role: "user", Content: content},
		},
	}

	data, requestID, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", domain.ErrUpstreamInvalidResponse("upstream returned a malformed completion payload").
			WithRequestID(requestID)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		return summaryFallback, nil
	}
	return text, nil
}

// Flashcards asks the upstream for question/answer pairs. The assistant
// text must parse as JSON; a missing or non-array "flashcards" field
// degrades to an empty list rather than erroring.
func (c *Client) Flashcards(ctx context.Context, content string) ([]Flashcard, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: flashcardsPrompt},
			{Role: "user", Content: content},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	data, requestID, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, domain.ErrUpstreamInvalidResponse("upstream returned a malformed completion payload").
			WithRequestID(requestID)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	var doc struct {
		Flashcards json.RawMessage `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, domain.ErrUpstreamInvalidResponse("upstream flashcard payload is not valid JSON").
			WithRequestID(requestID)
	}

	cards := []Flashcard{}
	if len(doc.Flashcards) > 0 {
		var parsed []Flashcard
		if err := json.Unmarshal(doc.Flashcards, &parsed); err == nil {
			cards = sanitizeCards(parsed)
		}
	}
	return cards, nil
}

// sanitizeCards drops entries without both a question and an answer and
// assigns sequential ids where the model omitted them.
func sanitizeCards(cards []Flashcard) []Flashcard {
	out := make([]Flashcard, 0, len(cards))
	for _, card := range cards {
		card.Question = strings.TrimSpace(card.Question)
		card.Answer = strings.TrimSpace(card.Answer)
		if card.Question == "" || card.Answer == "" {
			continue
		}
		if card.ID == 0 {
			card.ID = len(out) + 1
		}
		out = append(out, card)
	}
	return out
}

// Synthesize converts text to speech and returns the audio as a
// self-describing inline data URL.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	req := speechRequest{
		Model:          c.speechModel,
		Voice:          c.speechVoice,
		Input:          text,
		ResponseFormat: "mp3",
	}

	data, requestID, err := c.post(ctx, "/audio/speech", req)
	if err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", domain.ErrUpstreamInvalidResponse("upstream returned an empty audio payload").
			WithRequestID(requestID)
	}

	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
