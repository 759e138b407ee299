package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shop_api/internal/models"
)

// Indexer mirrors product writes into the search index. All methods are
// no-ops on a nil receiver so the cluster can stay optional.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func (i *Indexer) IndexProduct(ctx context.Context, p *models.Product) error {
	if i == nil || i.ES == nil {
		return nil
	}

	doc := map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"discount":    p.Discount,
		"quantity":    p.Quantity,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("es: encode product %d: %w", p.ID, err)
	}

	res, err := i.ES.Index(
		i.Index,
		&buf,
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (i *Indexer) DeleteProduct(ctx context.Context, id uint) error {
	if i == nil || i.ES == nil {
		return nil
	}

	res, err := i.ES.Delete(
		i.Index,
		strconv.FormatUint(uint64(id), 10),
		i.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es: delete product %d: %s", id, res.Status())
	}
	return nil
}
