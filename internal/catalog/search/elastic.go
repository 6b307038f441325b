package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "product_id":  {"type": "long"},
      "product":     {"type": "text"},
      "brand":       {"type": "keyword"},
      "category":    {"type": "keyword"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "services":    {"type": "text"},
      "min_price":   {"type": "scaled_float", "scaling_factor": 100}
    }
  }
}`

type Elastic struct {
	Client    *elasticsearch.Client
	IndexName string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res)
	}
	return client, nil
}

func NewElastic(client *elasticsearch.Client, index string) *Elastic {
	return &Elastic{Client: client, IndexName: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	res, err := e.Client.Indices.Exists([]string{e.IndexName}, e.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.Client.Indices.Create(e.IndexName,
		e.Client.Indices.Create.WithContext(ctx),
		e.Client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (e *Elastic) Index(ctx context.Context, m *models.ProductModel) error {
	body, err := json.Marshal(NewDocument(m))
	if err != nil {
		return err
	}

	res, err := e.Client.Index(e.IndexName, bytes.NewReader(body),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(strconv.FormatUint(uint64(m.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index model %d: %w", m.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

func (e *Elastic) Delete(ctx context.Context, id uint) error {
	res, err := e.Client.Delete(e.IndexName, strconv.FormatUint(uint64(id), 10),
		e.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete model %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, q string, from, size int) (int64, []Document, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^3", "product^2", "brand", "services", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.IndexName),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, responseError("search", res))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]Document, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}
