package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// adminDescribe drafts a product description with OpenAI. The draft is
// returned to the console for review; nothing is written to the catalog here.
func (s *Server) adminDescribe(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		http.Error(w, "OPENAI_API_KEY not configured", 500)
		return
	}
	if err := s.products.EnsureLoaded(r.Context()); err != nil {
		writeStoreError(w, s.products.Err())
		return
	}
	p, ok := s.products.Lookup(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	catName := p.CategoryID.Name
	if catName == "" {
		if c, found := s.categories.Lookup(p.CategoryID.Key()); found {
			catName = c.Name
		}
	}
	prompt := fmt.Sprintf(`Write a short, vivid product description for a fireworks store listing.

Product: %s
Category: %s
Sound level: %s
Burn time: %s
Features: %s
Tags: %s

Rules:
- 2 to 3 sentences, no headings, no emoji.
- Mention the visual or sound effect, never safety disclaimers.
- Plain text only.`,
		p.Name, catName, p.SoundLevel, p.BurnTime,
		strings.Join(p.Features, ", "), strings.Join(p.Tags, ", "))

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	client := openai.NewClient(apiKey)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You write concise e-commerce copy for festive fireworks."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		log.Error().Err(err).Str("product", id).Msg("describe")
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "Description generation failed"})
		return
	}
	if len(resp.Choices) == 0 {
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "Description generation failed"})
		return
	}
	draft := strings.TrimSpace(resp.Choices[0].Message.Content)
	writeJSON(w, 200, map[string]any{"productId": id, "description": draft})
}
