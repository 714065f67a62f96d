package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

type OrderUC struct {
	Orders   domain.OrderRepo
	Products *ProductStore
}

// CartLine is one aggregated cart entry ready to become an order item.
type CartLine struct {
	ProductID string
	Title     string
	Qty       int
	UnitPrice float64
}

// CreateFromCart builds and persists an order from aggregated cart lines.
// Prices come from the catalog snapshot, not from the client.
func (uc *OrderUC) CreateFromCart(ctx context.Context, lines []CartLine, o *domain.Order) error {
	if len(lines) == 0 {
		return errors.New("empty cart")
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.Status = domain.OrderStatusAwaitingPay
	total := 0.0
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		// the catalog snapshot is authoritative for title and unit price,
		// whatever the caller put on the line
		if uc.Products != nil {
			if p, ok := uc.Products.Lookup(l.ProductID); ok {
				l.Title = p.Name
				l.UnitPrice = p.Price
			}
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Title:     l.Title,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
		})
		total += l.UnitPrice * float64(l.Qty)
	}
	if len(o.Items) == 0 {
		return errors.New("empty cart")
	}
	o.Total = total + o.ShippingCost
	return uc.Orders.Save(ctx, o)
}

func (uc *OrderUC) List(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]domain.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return uc.Orders.List(ctx, status, page, pageSize)
}

func (uc *OrderUC) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.Orders.FindByID(ctx, id)
}

func (uc *OrderUC) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	o.Status = status
	return uc.Orders.Save(ctx, o)
}

// MarkNotified records that the operator notification for an order went out,
// so a restart does not re-announce old orders.
func (uc *OrderUC) MarkNotified(ctx context.Context, id uuid.UUID) error {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	o.Notified = true
	return uc.Orders.Save(ctx, o)
}

// OrderReport summarizes the orders placed in a date range. Cancelled orders
// count toward the status breakdown but not toward revenue or units.
type OrderReport struct {
	From           time.Time                  `json:"from"`
	To             time.Time                  `json:"to"`
	Orders         int                        `json:"orders"`
	Revenue        float64                    `json:"revenue"`
	ByStatus       map[domain.OrderStatus]int `json:"byStatus"`
	UnitsByProduct map[string]int             `json:"unitsByProduct"`
}

func (uc *OrderUC) Report(ctx context.Context, from, to time.Time) (*OrderReport, error) {
	list, err := uc.Orders.ListInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rep := &OrderReport{
		From:           from,
		To:             to,
		ByStatus:       map[domain.OrderStatus]int{},
		UnitsByProduct: map[string]int{},
	}
	for _, o := range list {
		rep.Orders++
		rep.ByStatus[o.Status]++
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		rep.Revenue += o.Total
		for _, it := range o.Items {
			rep.UnitsByProduct[it.ProductID] += it.Qty
		}
	}
	return rep, nil
}
