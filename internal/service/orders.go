package service

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/events"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/order"
	"github.com/Skotchmaster/shop_api/internal/store"
)

// Viewer is the authenticated caller.
type Viewer struct {
	UserID uint
	Admin  bool
}

type OrderService struct {
	DB       *gorm.DB
	Workflow *order.Workflow
	Orders   *store.Store[models.Order]
	Events   events.Publisher
}

// Place runs the order workflow for the viewer. A zero user_id means the
// viewer; only admins may place orders for someone else. Workflow errors are
// returned unchanged so callers can classify them with order.Kind.
func (s *OrderService) Place(ctx context.Context, viewer Viewer, in order.PlaceOrderInput) (*models.Order, error) {
	if in.UserID == 0 {
		in.UserID = viewer.UserID
	}
	if in.UserID != viewer.UserID && !viewer.Admin {
		return nil, fmt.Errorf("%w: cannot place an order for another user", ErrForbidden)
	}

	o, err := s.Workflow.Place(ctx, in)
	if err != nil {
		return nil, err
	}

	event := map[string]any{
		"type":        "order_created",
		"order_id":    o.ID,
		"user_id":     o.UserID,
		"total_price": o.TotalPrice,
		"discount":    o.Discount,
		"final_price": o.FinalPrice,
		"lines":       len(o.Lines),
	}
	if o.VoucherCode != nil {
		event["voucher_code"] = *o.VoucherCode
	}
	events.Emit(ctx, s.Events, logging.FromContext(ctx), events.TopicOrders, idKey(o.ID), event)
	return o, nil
}

// Get hides other users' orders from non-admins as not found.
func (s *OrderService) Get(ctx context.Context, viewer Viewer, id uint) (*models.Order, error) {
	o, err := s.Orders.Find(ctx, id)
	if err != nil {
		return nil, fromStore(err)
	}
	if !viewer.Admin && o.UserID != viewer.UserID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, viewer Viewer, q store.Query) (*store.Page[models.Order], error) {
	if !viewer.Admin {
		q.Filters = map[string]any{"user_id": viewer.UserID}
	}
	page, err := s.Orders.Paginate(ctx, q)
	return page, fromStore(err)
}

// Delete removes an order and its lines. Stock is not given back.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return fmt.Errorf("delete lines of order %d: %w", id, err)
		}
		return s.Orders.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return fromStore(err)
	}

	events.Emit(ctx, s.Events, logging.FromContext(ctx), events.TopicOrders, idKey(id), map[string]any{
		"type":     "order_deleted",
		"order_id": id,
	})
	return nil
}

func idKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
