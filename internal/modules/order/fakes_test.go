package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// memData holds products and orders. It implements Repository and Stock
// without locking; memStore serialises access.
type memData struct {
	products map[string]*inventory.StockItem
	orders   map[string]*Order
	seq      []string
	names    map[uuid.UUID]string
}

func (d *memData) clone() *memData {
	cp := &memData{
		products: make(map[string]*inventory.StockItem, len(d.products)),
		orders:   make(map[string]*Order, len(d.orders)),
		seq:      append([]string(nil), d.seq...),
		names:    d.names,
	}
	for id, p := range d.products {
		pc := *p
		cp.products[id] = &pc
	}
	for id, o := range d.orders {
		cp.orders[id] = copyOrder(o)
	}
	return cp
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]*Item, len(o.Items))
	for i, it := range o.Items {
		ic := *it
		cp.Items[i] = &ic
	}
	return &cp
}

func (d *memData) resolve(o *Order) *Order {
	cp := copyOrder(o)
	cp.Customer.Name = d.names[cp.Customer.ID]
	for _, it := range cp.Items {
		it.Seller.Name = d.names[it.Seller.ID]
	}
	return cp
}

func (d *memData) FetchActive(_ context.Context, id string) (*inventory.StockItem, error) {
	p, ok := d.products[id]
	if !ok || !p.IsActive {
		return nil, apperr.NotFound("product not found: %s", id)
	}
	cp := *p
	return &cp, nil
}

func (d *memData) DecrementStock(_ context.Context, id string, qty int) (int, error) {
	p, ok := d.products[id]
	if !ok || !p.IsActive {
		return 0, apperr.NotFound("product not found: %s", id)
	}
	if p.InStock < qty {
		return 0, apperr.InsufficientStock(id, p.Name, p.InStock, qty)
	}
	p.InStock -= qty
	return p.InStock, nil
}

func (d *memData) RestoreStock(_ context.Context, id string, qty int) error {
	p, ok := d.products[id]
	if !ok {
		return apperr.NotFound("product not found: %s", id)
	}
	p.InStock += qty
	return nil
}

func (d *memData) Insert(_ context.Context, o *Order) error {
	if _, exists := d.orders[o.ID.String()]; exists {
		return apperr.Conflict("order exists")
	}
	o.CreatedAt = testNow.Add(time.Duration(len(d.seq)) * time.Minute)
	o.UpdatedAt = o.CreatedAt
	d.orders[o.ID.String()] = copyOrder(o)
	d.seq = append(d.seq, o.ID.String())
	return nil
}

func (d *memData) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := d.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	return d.resolve(o), nil
}

func (d *memData) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return d.GetByID(ctx, id)
}

func (d *memData) GetByNumber(_ context.Context, number string) (*Order, error) {
	for _, o := range d.orders {
		if o.OrderNumber == number {
			return d.resolve(o), nil
		}
	}
	return nil, apperr.NotFound("order not found")
}

func (d *memData) List(_ context.Context, f ListFilter, page pagination.Page) ([]*Order, int, error) {
	var matched []*Order
	for i := len(d.seq) - 1; i >= 0; i-- {
		o := d.orders[d.seq[i]]
		if f.CustomerID != "" && o.Customer.ID.String() != f.CustomerID {
			continue
		}
		if f.SellerID != "" && !o.HasSeller(f.SellerID) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		view := d.resolve(o)
		if f.SellerID != "" {
			view = view.ItemsForSeller(f.SellerID)
		}
		matched = append(matched, view)
	}
	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return matched[start:end], total, nil
}

func (d *memData) UpdateStatus(_ context.Context, id string, c StatusChange) error {
	o, ok := d.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	o.Status = c.Status
	o.UpdatedAt = c.UpdatedAt
	if c.DeliveredAt != nil {
		o.DeliveredAt = c.DeliveredAt
	}
	if c.CancelledAt != nil {
		o.CancelledAt = c.CancelledAt
	}
	if c.CancelReason != nil {
		o.CancelReason = *c.CancelReason
	}
	return nil
}

func (d *memData) Analytics(_ context.Context, sellerID string) (*Rollup, error) {
	r := &Rollup{ByStatus: map[Status]int{}}
	var sellerRevenue float64
	for _, id := range d.seq {
		o := d.orders[id]
		if sellerID != "" && !o.HasSeller(sellerID) {
			continue
		}
		r.TotalOrders++
		r.TotalRevenue += o.FinalAmount
		r.ByStatus[o.Status]++
		for _, it := range o.Items {
			if it.Seller.ID.String() == sellerID {
				sellerRevenue += it.LineTotal
			}
		}
	}
	if r.TotalOrders > 0 {
		r.AvgOrderValue = r.TotalRevenue / float64(r.TotalOrders)
	}
	if sellerID != "" {
		r.SellerRevenue = &sellerRevenue
	}
	return r, nil
}

// memStore is a transactional in-memory store. Within snapshots state and
// restores it when fn fails.
type memStore struct {
	mu   sync.Mutex
	data *memData
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		products: map[string]*inventory.StockItem{},
		orders:   map[string]*Order{},
		names:    map[uuid.UUID]string{},
	}}
}

func (s *memStore) addProduct(seller uuid.UUID, name string, price float64, stock int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.data.products[id.String()] = &inventory.StockItem{
		ProductID: id, SellerID: seller, Name: name, Price: price, InStock: stock, IsActive: true,
	}
	return id.String()
}

func (s *memStore) stock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[productID].InStock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *memStore) setStatus(id string, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.orders[id].Status = st
}

func (s *memStore) Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(ctx, Tx{Orders: s.data, Stock: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *memStore) Insert(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Insert(ctx, o)
}

func (s *memStore) GetByID(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetByID(ctx, id)
}

func (s *memStore) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return s.GetByID(ctx, id)
}

func (s *memStore) GetByNumber(ctx context.Context, number string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.GetByNumber(ctx, number)
}

func (s *memStore) List(ctx context.Context, f ListFilter, page pagination.Page) ([]*Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.List(ctx, f, page)
}

func (s *memStore) UpdateStatus(ctx context.Context, id string, c StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateStatus(ctx, id, c)
}

func (s *memStore) Analytics(ctx context.Context, sellerID string) (*Rollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Analytics(ctx, sellerID)
}

type recordingCarts struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (c *recordingCarts) Clear(_ context.Context, customerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, customerID)
	return c.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]string(nil), p.events...)
	sort.Strings(out)
	return out
}

var errBoom = errors.New("boom")
