package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-admin/internal/models"
	"catalog-admin/internal/util"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// Indexer keeps an Elasticsearch index of products for full-text search.
// The catalog stays authoritative; the index only resolves queries to ids.
type Indexer struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// document is the indexed shape of a product
type document struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	Inventory      int               `json:"inventory"`
	CategoryID     string            `json:"category_id"`
	SubcategoryID  string            `json:"subcategory_id,omitempty"`
	BrandID        string            `json:"brand_id"`
	Specifications map[string]string `json:"specifications,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Hit is one search result
type Hit struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// NewIndexer connects to the cluster at addresses
func NewIndexer(addresses []string, index string) (*Indexer, error) {
	return newIndexer(elasticsearch.Config{Addresses: addresses}, index)
}

func newIndexer(cfg elasticsearch.Config, index string) (*Indexer, error) {
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Indexer{es: es, index: index, logger: util.GetLogger()}, nil
}

// Name identifies the indexer as an event sink
func (ix *Indexer) Name() string {
	return "elasticsearch"
}

// Ping checks the cluster
func (ix *Indexer) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, ix.es)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// IndexProduct writes or overwrites the document of a product
func (ix *Indexer) IndexProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(toDocument(p))
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", p.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, ix.es)
	if err != nil {
		return fmt.Errorf("failed to index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index product %s: %s", p.ID, res.String())
	}
	ix.logger.Debug("Product indexed", zap.String("product_id", p.ID))
	return nil
}

// DeleteProduct removes the document of a product; a missing document is not an error
func (ix *Indexer) DeleteProduct(ctx context.Context, productID string) error {
	req := esapi.DeleteRequest{
		Index:      ix.index,
		DocumentID: productID,
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, ix.es)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete product %s: %s", productID, res.String())
	}
	return nil
}

// Search matches query against product names, descriptions and specifications
func (ix *Indexer) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "description", "specifications.*"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{ix.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, ix.es)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s: %s", res.Status(), body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, Hit{ProductID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Apply keeps the index in step with product events
func (ix *Indexer) Apply(ctx context.Context, events ...models.Event) error {
	for _, e := range events {
		var err error
		switch e.EventType {
		case models.EventTypeProductCreated, models.EventTypeProductUpdated:
			if p, ok := e.Data.(models.Product); ok {
				err = ix.IndexProduct(ctx, p)
			}
		case models.EventTypeProductDeleted:
			err = ix.DeleteProduct(ctx, e.EntityID)
		case models.EventTypeCollectionReplaced:
			if replaced, ok := e.Data.(models.CollectionReplaced); ok {
				if products, ok := replaced.Records.([]models.Product); ok {
					err = ix.Reindex(ctx, products)
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reindex indexes every product, stopping at the first failure
func (ix *Indexer) Reindex(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		if err := ix.IndexProduct(ctx, p); err != nil {
			return err
		}
	}
	ix.logger.Info("Products reindexed", zap.Int("count", len(products)))
	return nil
}

func toDocument(p models.Product) document {
	price, _ := p.Price.Float64()
	return document{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          price,
		Inventory:      p.Inventory,
		CategoryID:     p.CategoryID,
		SubcategoryID:  p.SubcategoryID,
		BrandID:        p.BrandID,
		Specifications: p.Specifications,
		UpdatedAt:      p.UpdatedAt,
	}
}
