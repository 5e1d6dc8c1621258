package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// DeliveryWindow is added to the placement time to estimate delivery.
const DeliveryWindow = 7 * 24 * time.Hour

var tracer = otel.Tracer("github.com/georgemunganga/marketplace-api/internal/modules/order")

// Service defines the order lifecycle. Every call is made on behalf of an
// authenticated principal and is authorized against the policy table.
type Service interface {
	// PlaceOrder checks and decrements stock for every line, prices the
	// order and persists it in one transaction.
	PlaceOrder(ctx context.Context, p auth.Principal, req PlaceOrderRequest) (*Order, error)

	// GetOrder returns the order if the principal may see it. Sellers only
	// see their own lines.
	GetOrder(ctx context.Context, p auth.Principal, id string) (*Order, error)

	// GetOrderByNumber is GetOrder keyed by the public order number.
	GetOrderByNumber(ctx context.Context, p auth.Principal, number string) (*Order, error)

	ListCustomerOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error)
	ListSellerOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error)
	ListAllOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error)

	// UpdateStatus moves the order to the requested status.
	UpdateStatus(ctx context.Context, p auth.Principal, id string, req UpdateStatusRequest) (*Order, error)

	// CancelOrder cancels a non-terminal order with a reason.
	CancelOrder(ctx context.Context, p auth.Principal, id string, req CancelRequest) (*Order, error)

	// Analytics aggregates orders. Sellers are always scoped to themselves;
	// admins may pass a sellerID or leave it empty for all orders.
	Analytics(ctx context.Context, p auth.Principal, sellerID string) (*Analytics, error)
}

// Deps wires the service. Orders and UnitOfWork are required.
type Deps struct {
	Orders     Repository
	UnitOfWork UnitOfWork
	Cache      Cache
	Tasks      []PostCommitTask
	Logger     *zap.Logger

	// RestockOnCancel returns cancelled quantities to stock in the same
	// transaction as the status change.
	RestockOnCancel bool

	Clock          func() time.Time
	NewOrderNumber func(now time.Time) string
}

type service struct {
	orders          Repository
	uow             UnitOfWork
	cache           Cache
	tasks           []PostCommitTask
	logger          *zap.Logger
	restockOnCancel bool
	now             func() time.Time
	orderNumber     func(time.Time) string
	text            *bluemonday.Policy
}

// NewService creates a new order service.
func NewService(deps Deps) Service {
	s := &service{
		orders:          deps.Orders,
		uow:             deps.UnitOfWork,
		cache:           deps.Cache,
		tasks:           deps.Tasks,
		logger:          deps.Logger,
		restockOnCancel: deps.RestockOnCancel,
		now:             deps.Clock,
		orderNumber:     deps.NewOrderNumber,
		text:            bluemonday.StrictPolicy(),
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.orderNumber == nil {
		s.orderNumber = generateOrderNumber
	}
	return s
}

func (s *service) PlaceOrder(ctx context.Context, p auth.Principal, req PlaceOrderRequest) (o *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.PlaceOrder")
	defer func() { endSpan(span, err) }()

	if err := Authorize(p, ActionPlace, nil); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, apperr.InvalidInput("order must contain at least one item")
	}
	address, err := normalizeAddress(req.ShippingAddress)
	if err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, apperr.InvalidInput("items[%d].product_id is required", i)
		}
		if item.Quantity < 1 {
			return nil, apperr.InvalidInput("items[%d].quantity must be at least 1", i)
		}
	}
	method, ok := ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, apperr.InvalidInput("unsupported payment method: %s", req.PaymentMethod)
	}
	customerID, err := uuid.Parse(p.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("invalid principal")
	}

	now := s.now().UTC()
	draft := &Order{
		ID:                uuid.New(),
		OrderNumber:       s.orderNumber(now),
		Customer:          Party{ID: customerID},
		ShippingAddress:   address,
		PaymentMethod:     method,
		PaymentStatus:     PaymentPending,
		Status:            StatusPending,
		OrderNotes:        s.text.Sanitize(strings.TrimSpace(req.OrderNotes)),
		EstimatedDelivery: now.Add(DeliveryWindow),
	}
	span.SetAttributes(attribute.String("order.id", draft.ID.String()), attribute.Int("order.items", len(req.Items)))

	err = s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		lines := make([]decimal.Decimal, 0, len(req.Items))
		for _, item := range req.Items {
			product, err := tx.Stock.FetchActive(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.InStock < item.Quantity {
				return apperr.InsufficientStock(item.ProductID, product.Name, product.InStock, item.Quantity)
			}
			// The conditional decrement re-checks under the row lock, so a
			// concurrent order that won the race surfaces here.
			if _, err := tx.Stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			line := lineTotal(product.Price, item.Quantity)
			lines = append(lines, line)
			draft.Items = append(draft.Items, &Item{
				ID:          uuid.New(),
				ProductID:   product.ProductID,
				ProductName: product.Name,
				Seller:      Party{ID: product.SellerID},
				Quantity:    item.Quantity,
				UnitPrice:   round2(product.Price),
				LineTotal:   line.InexactFloat64(),
			})
		}

		totals := computeTotals(lines)
		draft.TotalAmount = totals.TotalAmount
		draft.TaxAmount = totals.TaxAmount
		draft.ShippingCost = totals.ShippingCost
		draft.FinalAmount = totals.FinalAmount

		if err := tx.Orders.Insert(ctx, draft); err != nil {
			return err
		}
		saved, err := tx.Orders.GetByID(ctx, draft.ID.String())
		if err != nil {
			return err
		}
		o = saved
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	logging.FromContext(ctx, s.logger).Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Float64("final_amount", o.FinalAmount))
	s.runPostCommit(ctx, Event{Type: EventOrderCreated, Order: o, ActorID: p.UserID})
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, p auth.Principal, id string) (o *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	o, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionView, o); err != nil {
		return nil, err
	}
	return s.viewFor(p, o), nil
}

func (s *service) GetOrderByNumber(ctx context.Context, p auth.Principal, number string) (o *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.GetOrderByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer func() { endSpan(span, err) }()

	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperr.InvalidInput("order number is required")
	}
	o, err = s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionView, o); err != nil {
		return nil, err
	}
	s.cache.Put(ctx, o)
	return s.viewFor(p, o), nil
}

func (s *service) load(ctx context.Context, id string) (*Order, error) {
	if o, ok := s.cache.Get(ctx, id); ok {
		return o, nil
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, o)
	return o, nil
}

// viewFor hides other sellers' lines from a seller.
func (s *service) viewFor(p auth.Principal, o *Order) *Order {
	if p.Is(user.RoleSeller) {
		return o.ItemsForSeller(p.UserID)
	}
	return o
}

func (s *service) ListCustomerOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error) {
	if err := Authorize(p, ActionListOwn, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, "order.ListCustomerOrders", ListFilter{CustomerID: p.UserID, Status: status}, page)
}

func (s *service) ListSellerOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error) {
	if err := Authorize(p, ActionListSeller, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, "order.ListSellerOrders", ListFilter{SellerID: p.UserID, Status: status}, page)
}

func (s *service) ListAllOrders(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error) {
	if err := Authorize(p, ActionListAll, nil); err != nil {
		return nil, err
	}
	return s.list(ctx, "order.ListAllOrders", ListFilter{Status: status}, page)
}

func (s *service) list(ctx context.Context, spanName string, filter ListFilter, page pagination.Page) (result *Page, err error) {
	ctx, span := tracer.Start(ctx, spanName)
	defer func() { endSpan(span, err) }()

	orders, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &Page{
		Orders:      orders,
		TotalOrders: total,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, p auth.Principal, id string, req UpdateStatusRequest) (o *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.UpdateStatus", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	target, ok := ParseStatus(req.Status)
	if !ok {
		return nil, apperr.InvalidInput("status must be one of %s", joinStatuses())
	}
	if err := authorizeTarget(p, target); err != nil {
		return nil, err
	}

	event := EventOrderStatusChanged
	if target == StatusCancelled {
		event = EventOrderCancelled
	}
	return s.transition(ctx, p, id, ActionUpdateStatus, target, nil, event)
}

func (s *service) CancelOrder(ctx context.Context, p auth.Principal, id string, req CancelRequest) (o *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.CancelOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	reason := strings.TrimSpace(s.text.Sanitize(req.CancelReason))
	if reason == "" {
		return nil, apperr.InvalidInput("cancel reason is required")
	}
	return s.transition(ctx, p, id, ActionCancel, StatusCancelled, &reason, EventOrderCancelled)
}

// transition locks the order, authorizes, applies the guard and writes the
// change. Cancellation restocks inside the same transaction when enabled.
func (s *service) transition(ctx context.Context, p auth.Principal, id string, action Action, target Status, reason *string, eventType string) (*Order, error) {
	var (
		updated  *Order
		previous Status
	)
	err := s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, action, o); err != nil {
			return err
		}
		if err := checkTransition(o.Status, target); err != nil {
			return err
		}

		now := s.now().UTC()
		// The revision must advance even when the clock does not, since
		// cached copies are ordered by it.
		revised := now.Truncate(time.Microsecond)
		if !revised.After(o.UpdatedAt) {
			revised = o.UpdatedAt.Add(time.Microsecond)
		}
		change := StatusChange{Status: target, UpdatedAt: revised}
		switch target {
		case StatusDelivered:
			change.DeliveredAt = &now
		case StatusCancelled:
			change.CancelledAt = &now
			change.CancelReason = reason
		}
		if err := tx.Orders.UpdateStatus(ctx, id, change); err != nil {
			return err
		}
		if target == StatusCancelled && s.restockOnCancel {
			for _, item := range o.Items {
				if err := tx.Stock.RestoreStock(ctx, item.ProductID.String(), item.Quantity); err != nil {
					return err
				}
			}
		}

		previous = o.Status
		o.Status = target
		o.UpdatedAt = revised
		if change.DeliveredAt != nil {
			o.DeliveredAt = change.DeliveredAt
		}
		if change.CancelledAt != nil {
			o.CancelledAt = change.CancelledAt
		}
		if reason != nil {
			o.CancelReason = *reason
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	s.cache.Put(ctx, updated)
	logging.FromContext(ctx, s.logger).Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
		zap.String("actor_role", string(p.Role)))
	s.runPostCommit(ctx, Event{Type: eventType, Order: updated, PreviousStatus: previous, ActorID: p.UserID})
	return s.viewFor(p, updated), nil
}

func (s *service) Analytics(ctx context.Context, p auth.Principal, sellerID string) (a *Analytics, err error) {
	ctx, span := tracer.Start(ctx, "order.Analytics")
	defer func() { endSpan(span, err) }()

	if err := Authorize(p, ActionAnalytics, nil); err != nil {
		return nil, err
	}
	if p.Is(user.RoleSeller) {
		sellerID = p.UserID
	}

	rollup, err := s.orders.Analytics(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	a = &Analytics{
		TotalOrders:     rollup.TotalOrders,
		TotalRevenue:    round2(rollup.TotalRevenue),
		AvgOrderValue:   round2(rollup.AvgOrderValue),
		StatusBreakdown: rollup.ByStatus,
	}
	if a.StatusBreakdown == nil {
		a.StatusBreakdown = map[Status]int{}
	}
	if rollup.SellerRevenue != nil {
		v := round2(*rollup.SellerRevenue)
		a.SellerRevenue = &v
	}
	return a, nil
}

func normalizeAddress(in *Address) (Address, error) {
	if in == nil {
		return Address{}, apperr.InvalidInput("shipping address is required")
	}
	a := Address{
		Street:  strings.TrimSpace(in.Street),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		ZipCode: strings.TrimSpace(in.ZipCode),
		Country: strings.TrimSpace(in.Country),
	}
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return Address{}, apperr.InvalidInput("complete shipping address is required")
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a, nil
}

// generateOrderNumber yields ORD-YYYYMMDD-<ULID>.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), ulid.Make().String())
}

func joinStatuses() string {
	names := make([]string, len(allStatuses))
	for i, st := range allStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}
