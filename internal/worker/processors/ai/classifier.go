package ai

import (
	"context"
	"fmt"
	"strings"

	"marketbridge/internal/models"
	"marketbridge/internal/services/anthropic"
)

const classifySystemPrompt = `You review product photos for a fashion storefront.
Respond with a single JSON object and nothing else.`

const classifyPrompt = `Classify this product image. Choose exactly one verdict:
- "delete": not a product photo (size chart, text banner, shipping notice, store logo, QR code, collage of unrelated items, heavy watermark)
- "remove_background": a usable product photo whose cluttered background should be removed (flat lay on a bed or floor, messy room)
- "usable": a clean product or model photo that can be published as is

Return {"verdict": "...", "reason": "one short sentence"}`

type classificationReply struct {
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// ClassifyImage asks the model whether an image should be deleted, cleaned or
// published unchanged.
func (e *Engine) ClassifyImage(ctx context.Context, url string) (models.Classification, error) {
	raw, err := e.client.Complete(ctx, classifySystemPrompt, anthropic.ImageURL(url), anthropic.Text(classifyPrompt))
	if err != nil {
		return models.Classification{}, fmt.Errorf("classification request failed: %w", err)
	}

	var reply classificationReply
	if err := anthropic.DecodeJSON(raw, &reply); err != nil {
		return models.Classification{}, fmt.Errorf("%w: classification: %v", ErrInvalidResponse, err)
	}
	verdict, err := models.ParseImageVerdict(reply.Verdict)
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return models.Classification{Verdict: verdict, Reason: strings.TrimSpace(reply.Reason)}, nil
}
