package service

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_api/internal/events"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/store"
	"github.com/Skotchmaster/shop_api/internal/util"
)

// ProductIndex is the full-text index kept next to the products table.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Products *store.Store[models.Product]
	Index    ProductIndex
	Events   events.Publisher
}

type ProductInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateProductName(in.Name); err != nil {
		return nil, err
	}
	if in.Price == nil {
		return nil, validation("price is required")
	}
	if in.Stock == nil {
		return nil, validation("stock is required")
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}
	if err := validateStock(*in.Stock); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, fromStore(err)
	}

	s.reindex(ctx, p)
	s.emit(ctx, p.ID, map[string]any{"type": "product_created", "id": p.ID, "name": p.Name, "price": p.Price, "stock": p.Stock})
	return p, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Products.Find(ctx, id)
	return p, fromStore(err)
}

func (s *CatalogService) List(ctx context.Context, q store.Query) (*store.Page[models.Product], error) {
	page, err := s.Products.Paginate(ctx, q)
	return page, fromStore(err)
}

// Patch updates the allow-listed fields present in fields. Unknown keys are
// rejected before anything is written.
func (s *CatalogService) Patch(ctx context.Context, id uint, fields map[string]json.RawMessage) (*models.Product, error) {
	updates := make(map[string]any, len(fields))
	for key, raw := range fields {
		switch key {
		case "name":
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return nil, validation("name must be a string")
			}
			name = strings.TrimSpace(name)
			if err := validateProductName(name); err != nil {
				return nil, err
			}
			updates["name"] = name
		case "description":
			var desc string
			if err := json.Unmarshal(raw, &desc); err != nil {
				return nil, validation("description must be a string")
			}
			updates["description"] = desc
		case "price":
			var price decimal.Decimal
			if err := json.Unmarshal(raw, &price); err != nil {
				return nil, validation("price must be a number")
			}
			if err := validatePrice(price); err != nil {
				return nil, err
			}
			updates["price"] = price
		case "stock":
			var stock int
			if err := json.Unmarshal(raw, &stock); err != nil {
				return nil, validation("stock must be an integer")
			}
			if err := validateStock(stock); err != nil {
				return nil, err
			}
			updates["stock"] = stock
		default:
			return nil, validation("field %q cannot be updated", key)
		}
	}

	p, err := s.Products.Update(ctx, id, updates)
	if err != nil {
		return nil, fromStore(err)
	}

	s.reindex(ctx, p)
	s.emit(ctx, p.ID, map[string]any{"type": "product_updated", "id": p.ID, "name": p.Name, "price": p.Price, "stock": p.Stock})
	return p, nil
}

// Delete removes the product row. Order lines keep their product_id and
// captured price.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	if err := s.Products.Delete(ctx, id); err != nil {
		return fromStore(err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("product_unindex_failed", "product_id", id, "error", err)
		}
	}
	s.emit(ctx, id, map[string]any{"type": "product_deleted", "id": id})
	return nil
}

// Search uses the full-text index when there is one and falls back to the
// store's name filter when it is missing or failing.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (*store.Page[models.Product], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, validation("q is required")
	}

	if s.Index != nil {
		from, limit := util.Calculate(page, size)
		total, items, err := s.Index.Search(ctx, q, from, limit)
		if err == nil {
			return &store.Page[models.Product]{
				Items:    items,
				Total:    total,
				Page:     from/limit + 1,
				Size:     limit,
				LastPage: util.LastPage(total, limit),
			}, nil
		}
		logging.FromContext(ctx).Warn("product_search_fallback", "reason", "index search failed", "error", err)
	}

	return s.List(ctx, store.Query{Q: q, Page: page, Size: size})
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("product_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) emit(ctx context.Context, id uint, event map[string]any) {
	events.Emit(ctx, s.Events, logging.FromContext(ctx), events.TopicProducts, idKey(id), event)
}

func validateProductName(name string) error {
	if name == "" {
		return validation("name is required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return validation("name must be at most 255 characters")
	}
	return nil
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return validation("price cannot be negative")
	}
	return nil
}

func validateStock(n int) error {
	if n < 0 {
		return validation("stock cannot be negative")
	}
	return nil
}
