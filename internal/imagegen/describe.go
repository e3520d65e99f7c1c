package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"roomspark-backend/internal/retry"
)

const maxDescriptions = 12

const describeInstruction = `List every distinct piece of furniture or decor visible in this room image. ` +
	`Respond only with JSON of the form {"items": ["..."]}. ` +
	`Each item is one line: the item name, its category, then its material, style and color, ` +
	`for example "Walnut lounge chair, seating, walnut wood, mid-century, brown leather".`

// Describer extracts short item descriptions from a generated image. They
// feed keyword product search later on.
type Describer interface {
	Describe(ctx context.Context, image []byte, contentType string) ([]string, error)
}

var errMalformedDescriptions = errors.New("malformed description payload")

type descriptionResult struct {
	items []string
	err   error
}

// orEmpty yields the items, or an empty list when extraction failed.
func (r descriptionResult) orEmpty(log zerolog.Logger) []string {
	if r.err != nil {
		log.Warn().Err(r.err).Msg("description extraction failed, continuing without descriptions")
		return []string{}
	}
	return r.items
}

func describeBestEffort(ctx context.Context, d Describer, policy retry.Policy, image []byte, contentType string) descriptionResult {
	if d == nil {
		return descriptionResult{items: []string{}}
	}
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	var items []string
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		items, err = d.Describe(ctx, image, contentType)
		return err
	})
	if err != nil {
		return descriptionResult{err: err}
	}
	return descriptionResult{items: items}
}

// parseDescriptions accepts {"items": [...]} or a bare JSON array, optionally
// wrapped in a markdown code fence.
func parseDescriptions(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, retry.Permanent(fmt.Errorf("%w: empty", errMalformedDescriptions))
	}

	var raw []string
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: %v", errMalformedDescriptions, err))
		}
	} else {
		var obj struct {
			Items []string `json:"items"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: %v", errMalformedDescriptions, err))
		}
		raw = obj.Items
	}

	return cleanDescriptions(raw), nil
}

func cleanDescriptions(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if len(out) == maxDescriptions {
			break
		}
	}
	return out
}
