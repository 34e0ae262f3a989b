package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"marketbridge/internal/models"
	"marketbridge/internal/services/anthropic"
	"marketbridge/internal/worker/processors/imaging"
)

const maxDownloadBytes = 20 << 20

// SizeChartResult is what the description images yielded. Chart is nil when
// no size chart was found.
type SizeChartResult struct {
	Chart            *models.SizeChart
	Materials        string
	CareInstructions string
}

type sizeChartReply struct {
	HasSizeChart     bool            `json:"has_size_chart"`
	SizeChart        json.RawMessage `json:"size_chart"`
	SourceImageIndex int             `json:"source_image_index"`
	Materials        string          `json:"materials"`
	CareInstructions string          `json:"care_instructions"`
}

const sizeChartSystemPrompt = `You read size charts and garment labels from product description images.
Respond with a single JSON object and nothing else.`

const sizeChartPrompt = `The images above are numbered from 1 in the order given. Find the size chart if one exists.

Return:
{
  "has_size_chart": true,
  "source_image_index": <number of the image containing the chart>,
  "size_chart": {
    "type": "tops | outerwear | bottoms | dresses | shoes",
    "rows": [ ... ],
    "model_info": {"height": "", "weight": "", "size": ""},
    "fit_notes": ""
  },
  "materials": "fabric composition in English if shown, else empty",
  "care_instructions": "care text in English if shown, else empty"
}

Row fields by type, measurements in cm as strings:
- tops, outerwear: size, length, chest, shoulder, sleeve
- bottoms: size, waist, hip, inseam, length
- dresses: size, bust, waist, hip, length
- shoes: size, eu, us, uk, cn, foot_length

If there is no size chart, return {"has_size_chart": false, "materials": "...", "care_instructions": "..."}.`

// ExtractSizeChart downloads up to maxImages description images, re-encodes
// them as bounded JPEGs and asks for a structured size chart in one call.
// Images that fail to download or decode are skipped.
func (e *Engine) ExtractSizeChart(ctx context.Context, urls []string, maxImages int) (*SizeChartResult, error) {
	if maxImages > 0 && len(urls) > maxImages {
		urls = urls[:maxImages]
	}

	var blocks []anthropic.ContentBlock
	var sent []string
	for _, url := range urls {
		data, err := e.download(ctx, url)
		if err != nil {
			e.logger.Warn("Skipping description image %s: %v", url, err)
			continue
		}
		jpeg, err := imaging.PrepareJPEG(data, e.maxDim, e.maxJPEGBytes)
		if err != nil {
			e.logger.Warn("Skipping description image %s: %v", url, err)
			continue
		}
		blocks = append(blocks, anthropic.ImageData("image/jpeg", jpeg))
		sent = append(sent, url)
	}
	if len(blocks) == 0 {
		return &SizeChartResult{}, nil
	}
	blocks = append(blocks, anthropic.Text(sizeChartPrompt))

	raw, err := e.client.Complete(ctx, sizeChartSystemPrompt, blocks...)
	if err != nil {
		return nil, fmt.Errorf("size chart request failed: %w", err)
	}

	var reply sizeChartReply
	if err := anthropic.DecodeJSON(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: size chart: %v", ErrInvalidResponse, err)
	}

	result := &SizeChartResult{
		Materials:        strings.TrimSpace(reply.Materials),
		CareInstructions: strings.TrimSpace(reply.CareInstructions),
	}
	if !reply.HasSizeChart || len(reply.SizeChart) == 0 || string(reply.SizeChart) == "null" {
		e.logger.Debug("No size chart among %d description images", len(sent))
		return result, nil
	}

	var chart models.SizeChart
	if err := json.Unmarshal(reply.SizeChart, &chart); err != nil {
		return nil, fmt.Errorf("%w: size chart: %v", ErrInvalidResponse, err)
	}
	if chart.Len() == 0 {
		return result, nil
	}
	if i := reply.SourceImageIndex; i >= 1 && i <= len(sent) {
		chart.SourceImage = sent[i-1]
	}

	e.logger.Info("Extracted %s size chart with %d rows", chart.Category, chart.Len())
	result.Chart = &chart
	return result, nil
}

func (e *Engine) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marketbridge/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
