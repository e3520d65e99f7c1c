package products

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"roomspark-backend/internal/models"
)

// MockProvider serves a fixed catalogue modelled on real lens results so the
// pipeline can run without a search API key.
type MockProvider struct {
	delay time.Duration
}

func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{delay: delay}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) GetProductsFromImage(ctx context.Context, imageURL string) ([]models.Product, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	catalogue := mockCatalogue()
	out := make([]models.Product, len(catalogue))
	for i, p := range catalogue {
		p.ID = uuid.New()
		out[i] = p
	}
	return out, nil
}

func (m *MockProvider) GetProductsByAmazonSearch(ctx context.Context, descriptions []string, projectID uuid.UUID, userID string) ([]models.Product, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(descriptions))
	for _, d := range descriptions {
		out = append(out, models.Product{
			ID:          uuid.New(),
			ProjectID:   projectID,
			UserID:      userID,
			Title:       "Amazon.com: " + d,
			Price:       &models.Price{Value: 89.99, Currency: "$"},
			Link:        "https://www.amazon.com/s?k=" + url.QueryEscape(d),
			Image:       "https://m.media-amazon.com/images/I/81YYfWf2E6L._AC_UF894,1000_QL80_.jpg",
			Description: synthesizeDescription("Amazon", d),
			Source:      "Amazon",
			InStock:     true,
		})
	}
	return out, nil
}

func (m *MockProvider) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func mockCatalogue() []models.Product {
	return []models.Product{
		{
			Title:       "3-Tier End Table with USB Ports and Outlets, Sofa Table for Small Space - Bed Bath & Beyond - 40768986",
			Link:        "https://www.bedbathandbeyond.com/Home-Garden/3-Tier-End-Table-with-USB-Ports-and-Outlets-Sofa-Table-for-Small-Space/40768986/product.html",
			Image:       "https://ak1.ostkcdn.com/images/products/is/images/direct/030e273800199eaf73b83441566aff960a710041/3-Tier-End-Table-with-USB-Ports-and-Outlets,-Sofa-Table-for-Small-Space.jpg?impolicy=medium",
			Description: "Bed Bath & Beyond - 3-Tier End Table with USB Ports and Outlets",
			Source:      "Bed Bath & Beyond",
		},
		{
			Title:       "BYBLIGHT Kerlin 23.62 in. Rustic Brown & Black Rectangular Wood End Table, 2-Tier Side Tables with Metal Frame for Home, 2 Pcs BB-RY0166YFx2 - The Home Depot",
			Price:       &models.Price{Value: 170, Currency: "$"},
			Link:        "https://www.homedepot.com/p/BYBLIGHT-Kerlin-23-62-in-Rustic-Brown-Black-Rectangular-Wood-End-Table-2-Tier-Side-Tables-with-Metal-Frame-for-Home-2-Pcs-BB-RY0166YFx2/332825066",
			Image:       "https://images.thdstatic.com/productImages/1498e0a9-9ab7-4cb7-b872-3d182683d3a1/svn/rustic-brown-black-byblight-end-side-tables-bb-ry0166yfx2-31_600.jpg",
			Description: "The Home Depot - BYBLIGHT Kerlin Rustic Brown & Black Wood End Table",
			Source:      "The Home Depot",
		},
		{
			Title:       "George Oliver Flinn 84'' Upholstered Sofa | Wayfair",
			Price:       &models.Price{Value: 1100, Currency: "$"},
			Link:        "https://www.wayfair.com/furniture/pdp/george-oliver-flinn-84-square-arm-sofa-with-reversible-cushions-w001355366.html",
			Image:       "https://assets.wfcdn.com/im/50357273/resize-h380-w380^compr-r70/1579/157955275/default_name.jpg",
			Description: "Wayfair - George Oliver Flinn 84'' Upholstered Sofa",
			Source:      "Wayfair",
			InStock:     true,
		},
		{
			Title:       "Uptown 96-Inch Sofa, Atenea Snow - Walmart.com",
			Price:       &models.Price{Value: 2304, Currency: "$"},
			Link:        "https://www.walmart.com/ip/Uptown-96-Inch-Sofa-Atenea-Snow/5144555998",
			Image:       "https://i5.walmartimages.com/seo/Uptown-96-Inch-Sofa-Atenea-Snow_5d84eff2-5f8c-4481-9e24-66ba0f9bb9a1.8025bc20f000016fe26c0521efa5b13a.jpeg?odnHeight=768&odnWidth=768&odnBg=FFFFFF",
			Description: "Walmart - Uptown 96-Inch Sofa, Atenea Snow",
			Source:      "Walmart",
			InStock:     true,
		},
		{
			Title:       "Amazon.com: Round Side Table, LED Nightstand, Set of 2 with Twine Rope Design, Modern Wooden Coffee Table",
			Link:        "https://www.amazon.com/-/es/auxiliar-redonda-dormitorio-moderna-mediados/dp/B0DB8C1BZH",
			Image:       "https://m.media-amazon.com/images/I/81YYfWf2E6L._AC_UF894,1000_QL80_.jpg",
			Description: "Amazon.com - Round Side Table with LED Design",
			Source:      "Amazon",
			InStock:     true,
		},
	}
}
