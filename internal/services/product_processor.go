package services

import (
	"regexp"

	"roomspark-backend/internal/models"
)

var amazonTitlePrefix = regexp.MustCompile(`^Amazon\.com:\s*`)

type ProcessorConfig struct {
	AmazonPriority bool
	TitleCleaning  bool
}

// ProductProcessor cleans titles and moves Amazon products to the front.
type ProductProcessor struct {
	cfg ProcessorConfig
}

func NewProductProcessor(cfg ProcessorConfig) *ProductProcessor {
	return &ProductProcessor{cfg: cfg}
}

// ProcessProducts never mutates its input. The reordering is a stable
// partition: order inside the Amazon group and inside the rest is kept.
func (p *ProductProcessor) ProcessProducts(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)

	if p.cfg.TitleCleaning {
		for i := range out {
			out[i].Title = amazonTitlePrefix.ReplaceAllString(out[i].Title, "")
		}
	}

	if p.cfg.AmazonPriority {
		preferred := make([]models.Product, 0, len(out))
		rest := make([]models.Product, 0, len(out))
		for _, product := range out {
			if isAmazonLink(product.Link) {
				preferred = append(preferred, product)
			} else {
				rest = append(rest, product)
			}
		}
		out = append(preferred, rest...)
	}

	return out
}
