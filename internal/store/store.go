// Package store is the generic record store behind the product, voucher and
// order CRUD surfaces. One implementation serves every entity; what differs
// per entity is its Spec.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/util"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidField = errors.New("invalid field")
)

// Spec lists what callers may do with an entity's columns.
type Spec struct {
	SearchColumn string
	Sortable     []string
	Mutable      []string
	Filterable   []string
	Preload      []string
}

type Query struct {
	Q       string
	Sort    string
	Column  string
	Page    int
	Size    int
	Filters map[string]any
}

type Page[T any] struct {
	Items    []T
	Total    int64
	Page     int
	Size     int
	LastPage int
}

// FirstItem is the 1-based position of the first item on the page, 0 when empty.
func (p *Page[T]) FirstItem() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.Page-1)*p.Size + 1
}

type Store[T any] struct {
	DB   *gorm.DB
	Spec Spec
}

func New[T any](db *gorm.DB, spec Spec) *Store[T] {
	return &Store[T]{DB: db, Spec: spec}
}

// WithTx returns a copy of the store bound to tx.
func (s *Store[T]) WithTx(tx *gorm.DB) *Store[T] {
	return &Store[T]{DB: tx, Spec: s.Spec}
}

func (s *Store[T]) Create(ctx context.Context, rec *T) error {
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create %T: %w", rec, err)
	}
	return nil
}

func (s *Store[T]) Find(ctx context.Context, id uint) (*T, error) {
	rec := new(T)
	err := s.preload(s.DB.WithContext(ctx)).First(rec, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %T %d", ErrNotFound, rec, id)
		}
		return nil, fmt.Errorf("find %T %d: %w", rec, id, err)
	}
	return rec, nil
}

// FindBy loads the first record whose column equals value. The column must
// be filterable or the search column.
func (s *Store[T]) FindBy(ctx context.Context, column string, value any) (*T, error) {
	if column != s.Spec.SearchColumn && !slices.Contains(s.Spec.Filterable, column) {
		return nil, fmt.Errorf("%w: cannot look up by %q", ErrInvalidField, column)
	}
	rec := new(T)
	err := s.preload(s.DB.WithContext(ctx)).
		Where(pq.QuoteIdentifier(column)+" = ?", value).
		First(rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %T %s=%v", ErrNotFound, rec, column, value)
		}
		return nil, fmt.Errorf("find %T by %s: %w", rec, column, err)
	}
	return rec, nil
}

// Update applies fields to the record with id. Every key must be one of
// Spec.Mutable; anything else rejects the whole update.
func (s *Store[T]) Update(ctx context.Context, id uint, fields map[string]any) (*T, error) {
	var rejected []string
	for k := range fields {
		if !slices.Contains(s.Spec.Mutable, k) {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) > 0 {
		slices.Sort(rejected)
		return nil, fmt.Errorf("%w: not updatable: %s", ErrInvalidField, strings.Join(rejected, ", "))
	}

	if _, err := s.Find(ctx, id); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		err := s.DB.WithContext(ctx).
			Model(new(T)).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, fmt.Errorf("update %T %d: %w", new(T), id, err)
		}
	}

	return s.Find(ctx, id)
}

func (s *Store[T]) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete %T %d: %w", new(T), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %T %d", ErrNotFound, new(T), id)
	}
	return nil
}

// Paginate filters, searches, sorts and pages. Sorting falls back to id
// ascending when no column is given.
func (s *Store[T]) Paginate(ctx context.Context, q Query) (*Page[T], error) {
	for col := range q.Filters {
		if !slices.Contains(s.Spec.Filterable, col) {
			return nil, fmt.Errorf("%w: cannot filter by %q", ErrInvalidField, col)
		}
	}
	order, err := s.orderBy(q.Column, q.Sort)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Q))
	where := func(db *gorm.DB) *gorm.DB {
		for col, v := range q.Filters {
			db = db.Where(pq.QuoteIdentifier(col)+" = ?", v)
		}
		if term != "" && s.Spec.SearchColumn != "" {
			db = db.Where("LOWER("+pq.QuoteIdentifier(s.Spec.SearchColumn)+") LIKE ?", "%"+term+"%")
		}
		return db
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(new(T)).Scopes(where).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count %T: %w", new(T), err)
	}

	offset, limit := util.Calculate(q.Page, q.Size)
	items := make([]T, 0, limit)
	err = s.preload(s.DB.WithContext(ctx).Model(new(T))).
		Scopes(where).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list %T: %w", new(T), err)
	}

	return &Page[T]{
		Items:    items,
		Total:    total,
		Page:     offset/limit + 1,
		Size:     limit,
		LastPage: util.LastPage(total, limit),
	}, nil
}

func (s *Store[T]) orderBy(column, direction string) (string, error) {
	if column == "" {
		column = "id"
	}
	if column != "id" && !slices.Contains(s.Spec.Sortable, column) {
		return "", fmt.Errorf("%w: cannot sort by %q", ErrInvalidField, column)
	}

	switch strings.ToLower(direction) {
	case "", "asc":
		return pq.QuoteIdentifier(column) + " ASC", nil
	case "desc":
		return pq.QuoteIdentifier(column) + " DESC", nil
	default:
		return "", fmt.Errorf("%w: sort must be asc or desc", ErrInvalidField)
	}
}

func (s *Store[T]) preload(db *gorm.DB) *gorm.DB {
	for _, p := range s.Spec.Preload {
		db = db.Preload(p)
	}
	return db
}
