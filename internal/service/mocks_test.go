package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/store"
)

// fakeData is a map-backed stand-in for store.TenantData. Its WithTransaction
// snapshots all state and restores it when the callback fails, so
// transactional rollback is observable in tests. failOn forces one named
// operation to fail.
type fakeData struct {
	mu         sync.Mutex
	tables     map[primitive.ObjectID]*model.Table
	orders     map[primitive.ObjectID]*model.Order
	kots       map[primitive.ObjectID]*model.KOT
	bookings   map[primitive.ObjectID]*model.TableBooking
	categories map[primitive.ObjectID]*model.Category
	menuItems  map[primitive.ObjectID]*model.MenuItem
	failOn     map[string]error
}

func newFakeData() *fakeData {
	return &fakeData{
		tables:     make(map[primitive.ObjectID]*model.Table),
		orders:     make(map[primitive.ObjectID]*model.Order),
		kots:       make(map[primitive.ObjectID]*model.KOT),
		bookings:   make(map[primitive.ObjectID]*model.TableBooking),
		categories: make(map[primitive.ObjectID]*model.Category),
		menuItems:  make(map[primitive.ObjectID]*model.MenuItem),
		failOn:     make(map[string]error),
	}
}

func (f *fakeData) fail(op string) error {
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeData) snapshot() *fakeData {
	snap := newFakeData()
	for id, t := range f.tables {
		c := *t
		c.MergedWith = append([]primitive.ObjectID(nil), t.MergedWith...)
		snap.tables[id] = &c
	}
	for id, o := range f.orders {
		c := *o
		snap.orders[id] = &c
	}
	for id, k := range f.kots {
		c := *k
		snap.kots[id] = &c
	}
	for id, b := range f.bookings {
		c := *b
		snap.bookings[id] = &c
	}
	for id, cat := range f.categories {
		c := *cat
		snap.categories[id] = &c
	}
	for id, m := range f.menuItems {
		c := *m
		snap.menuItems[id] = &c
	}
	return snap
}

func (f *fakeData) restore(snap *fakeData) {
	f.tables = snap.tables
	f.orders = snap.orders
	f.kots = snap.kots
	f.bookings = snap.bookings
	f.categories = snap.categories
	f.menuItems = snap.menuItems
}

func (f *fakeData) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// --- TableStore ---

func (f *fakeData) InsertTable(_ context.Context, _ string, t *model.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertTable"); err != nil {
		return err
	}
	for _, existing := range f.tables {
		if existing.Number == t.Number {
			return store.ErrDuplicateKey
		}
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	c := *t
	f.tables[t.ID] = &c
	return nil
}

func (f *fakeData) FindTableByID(_ context.Context, _ string, id primitive.ObjectID) (*model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (f *fakeData) FindTableByNumber(_ context.Context, _ string, number string) (*model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.Number == number {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeData) ListTables(_ context.Context, _ string) ([]model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Table, 0, len(f.tables))
	for _, t := range f.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (f *fakeData) SetTableStatus(_ context.Context, _ string, id primitive.ObjectID, status model.TableStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetTableStatus"); err != nil {
		return err
	}
	t, ok := f.tables[id]
	if !ok {
		return fmt.Errorf("table %s not matched", id.Hex())
	}
	t.Status = status
	return nil
}

func (f *fakeData) FindActiveMergeGroupFor(_ context.Context, _ string, memberID primitive.ObjectID) (*model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.IsSynthetic() && t.Status != model.TableMaintenance && t.HasMember(memberID) {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeData) FindReplacementCandidates(_ context.Context, _ string, minCapacity int, exclude []primitive.ObjectID, limit int) ([]model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[primitive.ObjectID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []model.Table
	for _, t := range f.tables {
		if t.Status != model.TableAvailable || !t.IsActive || t.Capacity < minCapacity {
			continue
		}
		if t.IsSynthetic() || excluded[t.ID] {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].Number < out[j].Number
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeData) MaxMergeSequence(_ context.Context, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, t := range f.tables {
		rest := strings.TrimPrefix(t.Number, model.MergeNumberPrefix)
		if rest == t.Number {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// --- OrderStore ---

func (f *fakeData) InsertOrder(_ context.Context, _ string, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertOrder"); err != nil {
		return err
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	c := *o
	f.orders[o.ID] = &c
	return nil
}

func (f *fakeData) FindOrderByID(_ context.Context, _ string, id primitive.ObjectID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (f *fakeData) UpdateOrderStatus(_ context.Context, _ string, id primitive.ObjectID, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("order %s not matched", id.Hex())
	}
	o.Status = status
	return nil
}

func (f *fakeData) SetOrderTable(_ context.Context, _ string, id, tableID primitive.ObjectID, tableNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetOrderTable"); err != nil {
		return err
	}
	o, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("order %s not matched", id.Hex())
	}
	tid := tableID
	o.TableID = &tid
	o.TableNumber = tableNumber
	return nil
}

func (f *fakeData) FindActiveOrdersByTable(_ context.Context, _ string, tableID primitive.ObjectID) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Order
	for _, o := range f.orders {
		if o.TableID != nil && *o.TableID == tableID && !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

// --- KOTStore ---

func (f *fakeData) InsertKOT(_ context.Context, _ string, k *model.KOT) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertKOT"); err != nil {
		return err
	}
	if k.ID.IsZero() {
		k.ID = primitive.NewObjectID()
	}
	c := *k
	f.kots[k.ID] = &c
	return nil
}

func (f *fakeData) FindKOTByID(_ context.Context, _ string, id primitive.ObjectID) (*model.KOT, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.kots[id]
	if !ok {
		return nil, nil
	}
	c := *k
	return &c, nil
}

func (f *fakeData) FindKOTsByOrder(_ context.Context, _ string, orderID primitive.ObjectID) ([]model.KOT, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.KOT
	for _, k := range f.kots {
		if k.OrderID == orderID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (f *fakeData) UpdateKOTStatus(_ context.Context, _ string, id primitive.ObjectID, status model.KOTStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.kots[id]
	if !ok {
		return fmt.Errorf("KOT %s not matched", id.Hex())
	}
	k.Status = status
	return nil
}

func (f *fakeData) SetKOTTableForOrder(_ context.Context, _ string, orderID, tableID primitive.ObjectID, tableNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SetKOTTableForOrder"); err != nil {
		return err
	}
	for _, k := range f.kots {
		if k.OrderID == orderID {
			tid := tableID
			k.TableID = &tid
			k.TableNumber = tableNumber
		}
	}
	return nil
}

func (f *fakeData) RepointKOTs(_ context.Context, _ string, orderIDs []primitive.ObjectID, oldTableID, newTableID primitive.ObjectID, newTableNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RepointKOTs"); err != nil {
		return err
	}
	inOrders := make(map[primitive.ObjectID]bool, len(orderIDs))
	for _, id := range orderIDs {
		inOrders[id] = true
	}
	for _, k := range f.kots {
		if inOrders[k.OrderID] || (k.TableID != nil && *k.TableID == oldTableID) {
			tid := newTableID
			k.TableID = &tid
			k.TableNumber = newTableNumber
		}
	}
	return nil
}

func (f *fakeData) CancelOpenKOTsForOrder(_ context.Context, _ string, orderID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.kots {
		if k.OrderID == orderID && !k.Status.Terminal() {
			k.Status = model.KOTCancelled
		}
	}
	return nil
}

// --- BookingStore ---

func (f *fakeData) InsertBooking(_ context.Context, _ string, b *model.TableBooking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	c := *b
	f.bookings[b.ID] = &c
	return nil
}

func (f *fakeData) FindBookingByID(_ context.Context, _ string, id primitive.ObjectID) (*model.TableBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (f *fakeData) SetBookingStatus(_ context.Context, _ string, id primitive.ObjectID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not matched", id.Hex())
	}
	b.Status = status
	return nil
}

// --- CatalogStore ---

func (f *fakeData) InsertCategory(_ context.Context, _ string, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.categories {
		if existing.Name == c.Name {
			return store.ErrDuplicateKey
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeData) FindCategoryByID(_ context.Context, _ string, id primitive.ObjectID) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeData) ListCategories(_ context.Context, _ string) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeData) InsertMenuItem(_ context.Context, _ string, m *model.MenuItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	cp := *m
	f.menuItems[m.ID] = &cp
	return nil
}

func (f *fakeData) ListMenuItems(_ context.Context, _ string, categoryID *primitive.ObjectID) ([]model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MenuItem
	for _, m := range f.menuItems {
		if categoryID != nil && m.CategoryID != *categoryID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (m *mockPublisher) Publish(_ context.Context, topic string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.bodies = append(m.bodies, data)
	return nil
}
