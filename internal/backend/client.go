// Package backend is the HTTP client for the card search server. It covers
// the handful of JSON routes the app consumes and nothing else; callers own
// retries and caching.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deckforge/internal/domain"
)

// cardsPageSize is the largest identifier batch the server accepts on
// POST /2/cards/.
const cardsPageSize = 1000

// cardsFetchParallelism bounds concurrent page fetches.
const cardsFetchParallelism = 4

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the given base URL ("http://host[:port]",
// trailing slash tolerated).
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// BaseURL returns the backend base URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health reports whether the backend's search engine is reachable.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		Online bool `json:"online"`
	}
	if err := c.get(ctx, "/2/searchEngineHealth/", &out); err != nil {
		return false, err
	}
	return out.Online, nil
}

// Info fetches the server's display metadata.
func (c *Client) Info(ctx context.Context) (domain.ServerInfo, error) {
	var out struct {
		Info domain.ServerInfo `json:"info"`
	}
	if err := c.get(ctx, "/2/info/", &out); err != nil {
		return domain.ServerInfo{}, err
	}
	return out.Info, nil
}

// Sources fetches the contributor list, ordered by primary key.
func (c *Client) Sources(ctx context.Context) ([]domain.Source, error) {
	var out struct {
		Results map[string]domain.Source `json:"results"`
	}
	if err := c.get(ctx, "/2/sources/", &out); err != nil {
		return nil, err
	}
	sources := make([]domain.Source, 0, len(out.Results))
	for _, src := range out.Results {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].PK < sources[j].PK })
	return sources, nil
}

// SearchResults runs the given queries under the given settings and returns
// each query's identifier hit list, in backend relevance order.
func (c *Client) SearchResults(ctx context.Context, settings domain.SearchSettings, queries []domain.SearchQuery) (map[domain.SearchQuery][]string, error) {
	if len(queries) == 0 {
		return map[domain.SearchQuery][]string{}, nil
	}

	wire := make([]searchQueryJSON, len(queries))
	for i, q := range queries {
		wire[i] = searchQueryJSON{Query: q.Text, CardType: q.Type}
	}
	body := searchResultsRequest{SearchSettings: settings, Queries: wire}

	var out struct {
		Results map[string]map[domain.CardType][]string `json:"results"`
	}
	if err := c.post(ctx, "/2/searchResults/", body, &out); err != nil {
		return nil, err
	}

	results := make(map[domain.SearchQuery][]string, len(queries))
	for _, q := range queries {
		hits := out.Results[q.Text][q.Type]
		if hits == nil {
			hits = []string{}
		}
		results[q] = hits
	}
	return results, nil
}

// Cards fetches metadata for the given identifiers, paging and fetching
// pages concurrently. Identifiers unknown to the backend are simply absent
// from the returned map.
func (c *Client) Cards(ctx context.Context, identifiers []string) (map[string]domain.CardDocument, error) {
	if len(identifiers) == 0 {
		return map[string]domain.CardDocument{}, nil
	}

	var pages [][]string
	for start := 0; start < len(identifiers); start += cardsPageSize {
		end := min(start+cardsPageSize, len(identifiers))
		pages = append(pages, identifiers[start:end])
	}

	var mu sync.Mutex
	merged := make(map[string]domain.CardDocument, len(identifiers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cardsFetchParallelism)
	for _, page := range pages {
		g.Go(func() error {
			var out struct {
				Results map[string]domain.CardDocument `json:"results"`
			}
			if err := c.post(gctx, "/2/cards/", cardsRequest{CardIdentifiers: page}, &out); err != nil {
				return err
			}
			mu.Lock()
			for id, doc := range out.Results {
				merged[id] = doc
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Cardbacks fetches the cardback identifiers eligible under the settings,
// in backend preference order.
func (c *Client) Cardbacks(ctx context.Context, settings domain.SearchSettings) ([]string, error) {
	var out struct {
		Cardbacks []string `json:"cardbacks"`
	}
	if err := c.post(ctx, "/2/cardbacks/", cardbacksRequest{SearchSettings: settings}, &out); err != nil {
		return nil, err
	}
	return out.Cardbacks, nil
}

// DFCPairs fetches the double-faced card name pairing table.
func (c *Client) DFCPairs(ctx context.Context) ([]domain.DFCPair, error) {
	var out struct {
		DFCPairs map[string]string `json:"dfc_pairs"`
	}
	if err := c.get(ctx, "/2/DFCPairs/", &out); err != nil {
		return nil, err
	}
	pairs := make([]domain.DFCPair, 0, len(out.DFCPairs))
	for front, back := range out.DFCPairs {
		pairs = append(pairs, domain.DFCPair{Front: front, Back: back})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Front < pairs[j].Front })
	return pairs, nil
}

// ImportSites fetches the deck-building sites the backend can read
// decklists from.
func (c *Client) ImportSites(ctx context.Context) ([]domain.ImportSite, error) {
	var out struct {
		ImportSites []domain.ImportSite `json:"import_sites"`
	}
	if err := c.get(ctx, "/2/importSites/", &out); err != nil {
		return nil, err
	}
	return out.ImportSites, nil
}

// ImportSiteDecklist asks the backend to pull a decklist from a supported
// deck-building site URL and returns it as decklist text.
func (c *Client) ImportSiteDecklist(ctx context.Context, url string) (string, error) {
	var out struct {
		Cards string `json:"cards"`
	}
	if err := c.post(ctx, "/2/importSiteDecklist/", importSiteDecklistRequest{URL: url}, &out); err != nil {
		return "", err
	}
	return out.Cards, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var apiErr APIError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Name != "" {
			return &apiErr
		}
		return &APIError{
			Name:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			Message: strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type searchQueryJSON struct {
	Query    string          `json:"query"`
	CardType domain.CardType `json:"card_type"`
}

type searchResultsRequest struct {
	SearchSettings domain.SearchSettings `json:"searchSettings"`
	Queries        []searchQueryJSON     `json:"queries"`
}

type cardsRequest struct {
	CardIdentifiers []string `json:"card_identifiers"`
}

type cardbacksRequest struct {
	SearchSettings domain.SearchSettings `json:"searchSettings"`
}

type importSiteDecklistRequest struct {
	URL string `json:"url"`
}
