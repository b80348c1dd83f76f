// Package stock fetches point-in-time menu availability from the external
// menu source. Snapshots are always fetched fresh before a mutation or
// submission decision; callers never cache them across requests.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"grouporder/internal/models"
)

// Provider fetches the current availability of menu items.
type Provider interface {
	Fetch(ctx context.Context) (*models.StockSnapshot, error)
}

// HTTPProvider fetches stock over HTTP from the legacy menu endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for the given stock URL with a bounded
// request timeout.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// stockResponse is the wire shape of the legacy stock endpoint.
type stockResponse struct {
	Categories map[string]map[string]models.StockEntry `json:"categories"`
}

// Fetch retrieves a fresh snapshot.
func (p *HTTPProvider) Fetch(ctx context.Context) (*models.StockSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stock request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock endpoint returned status %d", resp.StatusCode)
	}

	var body stockResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode stock response: %w", err)
	}

	return &models.StockSnapshot{
		FetchedAt:  time.Now().Unix(),
		Categories: body.Categories,
	}, nil
}
