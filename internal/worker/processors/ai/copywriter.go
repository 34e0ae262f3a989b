package ai

import (
	"context"
	"fmt"
	"html"
	"strings"

	"marketbridge/internal/brands"
	"marketbridge/internal/services/anthropic"
)

const maxTitleLength = 70

// Copy is the storefront-facing text for a product.
type Copy struct {
	Title           string `json:"title"`
	DescriptionHTML string `json:"description_html"`
}

type copyReply struct {
	Title           string `json:"title"`
	DescriptionHTML string `json:"description_html"`
}

const copySystemPrompt = `You are an e-commerce copywriter for an independent fashion storefront.
Respond with a single JSON object and nothing else.`

// GenerateCopy writes a title and HTML description in the brand's voice.
// Any failure falls back to the translated text, so copy never blocks a
// product.
func (e *Engine) GenerateCopy(ctx context.Context, tp *TranslatedProduct, brand brands.Profile) *Copy {
	prompt := fmt.Sprintf(`Write product copy.

Brand: %s
Brand voice: %s
Audience: %s
Keywords to weave in naturally: %s

Product type: %s
Gender: %s
Translated title: %s
Translated description: %s
Materials: %s
Care: %s
Colors: %s

Requirements:
- title under %d characters, no brand name, no marketing filler like "hot" or "new arrival"
- description_html: one short paragraph followed by a <ul> of 3-5 key features, valid HTML, no inline styles
- never invent materials or measurements

Return {"title": "...", "description_html": "..."}`,
		brand.Vendor, brand.Voice, brand.Audience, strings.Join(brand.Keywords, ", "),
		tp.ProductType, tp.Gender, tp.Title, tp.Description, tp.Materials, tp.CareInstructions,
		strings.Join(distinctColors(tp), ", "), maxTitleLength)

	raw, err := e.client.Complete(ctx, copySystemPrompt, anthropic.Text(prompt))
	if err != nil {
		e.logger.Error("AI copy generation failed, using fallback: %v", err)
		return FallbackCopy(tp)
	}

	var reply copyReply
	if err := anthropic.DecodeJSON(raw, &reply); err != nil {
		e.logger.Error("Failed to parse AI copy response, using fallback: %v", err)
		return FallbackCopy(tp)
	}

	out := FallbackCopy(tp)
	if t := strings.TrimSpace(reply.Title); t != "" {
		out.Title = clip(t, maxTitleLength)
	}
	if d := strings.TrimSpace(reply.DescriptionHTML); d != "" {
		out.DescriptionHTML = d
	}
	return out
}

// FallbackCopy builds copy from the translation alone.
func FallbackCopy(tp *TranslatedProduct) *Copy {
	var b strings.Builder
	if tp.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(tp.Description))
	}
	var details []string
	if tp.Materials != "" {
		details = append(details, "Materials: "+tp.Materials)
	}
	if tp.CareInstructions != "" {
		details = append(details, "Care: "+tp.CareInstructions)
	}
	if len(details) > 0 {
		b.WriteString("<ul>")
		for _, d := range details {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(d))
		}
		b.WriteString("</ul>")
	}
	return &Copy{
		Title:           clip(tp.Title, maxTitleLength),
		DescriptionHTML: b.String(),
	}
}

func distinctColors(tp *TranslatedProduct) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range tp.Variants {
		if v.Color == "" || seen[v.Color] {
			continue
		}
		seen[v.Color] = true
		out = append(out, v.Color)
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
