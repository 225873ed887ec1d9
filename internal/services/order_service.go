package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
	"github.com/sadhef/Ri-carts-sub001/internal/repository"
)

const (
	catalogBatchSize   = 50
	catalogConcurrency = 4
)

type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    infra.ProductCache
	currency string
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, currency string) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		currency: currency,
	}
}

// SetProductCache lets order placement drop cached products whose stock it
// just changed.
func (s *OrderService) SetProductCache(c infra.ProductCache) {
	s.cache = c
}

type OrderItemInput struct {
	ProductID    uint64
	Name         string
	Price        decimal.Decimal
	ComparePrice decimal.Decimal
	Quantity     int64
	Image        string
	SKU          string
}

type CreateOrderInput struct {
	UserID          string
	Items           []OrderItemInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	ShippingMethod  string
	Notes           string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	SavingsAmount   decimal.Decimal
}

type CreateOrderResult struct {
	ID          uint64
	OrderNumber string
	Status      domain.OrderStatus
	TotalAmount decimal.Decimal
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}

	catalog, err := s.loadCatalog(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order, err := s.buildOrder(in, catalog)
	if err != nil {
		return nil, err
	}

	if err := s.orders.CreateWithStock(ctx, order); err != nil {
		return nil, err
	}

	if s.cache != nil {
		ids := make([]uint64, 0, len(catalog))
		for id := range catalog {
			ids = append(ids, id)
		}
		s.cache.Invalidate(ctx, ids...)
	}

	log.Info().
		Uint64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("user_id", order.UserID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order placed")

	return &CreateOrderResult{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	}, nil
}

func validateCreateOrder(in CreateOrderInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return domain.ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return domain.NewError(domain.CodeValidation, "order must contain at least one item")
	}
	for i, it := range in.Items {
		if it.ProductID == 0 {
			return domain.NewError(domain.CodeValidation, "item %d: productId is required", i+1)
		}
		if it.Quantity <= 0 {
			return domain.NewError(domain.CodeValidation, "item %d: quantity must be positive", i+1)
		}
		if it.Price.IsNegative() {
			return domain.NewError(domain.CodeValidation, "item %d: price must not be negative", i+1)
		}
	}
	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotal", in.Subtotal},
		{"shippingCost", in.ShippingCost},
		{"taxAmount", in.TaxAmount},
		{"totalAmount", in.TotalAmount},
	}
	for _, m := range money {
		if m.value.IsNegative() {
			return domain.NewError(domain.CodeValidation, "%s must not be negative", m.field)
		}
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return domain.NewError(domain.CodeValidation, "paymentMethod is required")
	}
	if strings.TrimSpace(in.ShippingMethod) == "" {
		return domain.NewError(domain.CodeValidation, "shippingMethod is required")
	}
	return nil
}

// loadCatalog reads every referenced product, in concurrent batches, and
// checks availability for the whole cart before anything is written.
func (s *OrderService) loadCatalog(ctx context.Context, items []OrderItemInput) (map[uint64]domain.Product, error) {
	wanted := make(map[uint64]int64, len(items))
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		if _, ok := wanted[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		wanted[it.ProductID] += it.Quantity
	}

	var (
		mu      sync.Mutex
		catalog = make(map[uint64]domain.Product, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)
	for start := 0; start < len(ids); start += catalogBatchSize {
		batch := ids[start:min(start+catalogBatchSize, len(ids))]
		g.Go(func() error {
			found, err := s.products.FindByIDs(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, p := range found {
				catalog[id] = p
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, it := range items {
		p, ok := catalog[it.ProductID]
		if !ok {
			return nil, domain.NewError(domain.CodeProductNotFound, "product not found: %s", lineName(it))
		}
		if need := wanted[it.ProductID]; need > p.Stock {
			return nil, domain.NewError(domain.CodeInsufficientStock, "insufficient stock for %q: requested %d, available %d", p.Name, need, p.Stock)
		}
	}
	return catalog, nil
}

func lineName(it OrderItemInput) string {
	if it.Name != "" {
		return it.Name
	}
	return "#" + strconv.FormatUint(it.ProductID, 10)
}

// buildOrder prices the cart from the catalog and checks the client's
// figures against it.
func (s *OrderService) buildOrder(in CreateOrderInput, catalog map[uint64]domain.Product) (*domain.Order, error) {
	subtotal := decimal.Zero
	savings := decimal.Zero
	items := make([]domain.OrderItem, 0, len(in.Items))

	for _, it := range in.Items {
		p := catalog[it.ProductID]
		if !domain.Cents(it.Price).Equal(domain.Cents(p.Price)) {
			return nil, domain.NewError(domain.CodePriceMismatch, "price of %q changed from %s to %s", p.Name, it.Price.StringFixed(2), p.Price.StringFixed(2))
		}

		line := domain.OrderItem{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			ComparePrice: p.ComparePrice,
			Quantity:     it.Quantity,
			Image:        p.Image,
			SKU:          p.SKU,
		}
		subtotal = subtotal.Add(line.LineTotal())
		if diff := p.ComparePrice.Sub(p.Price); diff.IsPositive() {
			savings = savings.Add(diff.Mul(decimal.NewFromInt(it.Quantity)))
		}
		items = append(items, line)
	}

	subtotal = domain.Cents(subtotal)
	if !domain.Cents(in.Subtotal).Equal(subtotal) {
		return nil, domain.NewError(domain.CodeTotalMismatch, "subtotal %s does not match item total %s", in.Subtotal.StringFixed(2), subtotal.StringFixed(2))
	}
	shipping := domain.Cents(in.ShippingCost)
	tax := domain.Cents(in.TaxAmount)
	total := subtotal.Add(shipping).Add(tax)
	if !domain.Cents(in.TotalAmount).Equal(total) {
		return nil, domain.NewError(domain.CodeTotalMismatch, "total %s does not equal subtotal + shipping + tax (%s)", in.TotalAmount.StringFixed(2), total.StringFixed(2))
	}

	return &domain.Order{
		UserID:          in.UserID,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		Items:           items,
		ShippingAddress: datatypes.NewJSONType(in.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		ShippingMethod:  strings.TrimSpace(in.ShippingMethod),
		Notes:           in.Notes,
		Currency:        s.currency,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		TaxAmount:       tax,
		TotalAmount:     total,
		SavingsAmount:   domain.Cents(savings),
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, caller Caller, id uint64) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !caller.Admin && !caller.owns(o) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.orders.FindByUserID(ctx, userID)
}

// ListAllOrders returns orders across all users, optionally filtered by a
// status name.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, limit int) ([]domain.Order, error) {
	filter := repository.OrderFilter{Limit: limit}
	if status != "" {
		st, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.orders.List(ctx, filter)
}
