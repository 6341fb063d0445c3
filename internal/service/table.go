package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/event"
	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/monitoring"
	"github.com/shinepos/pos-backend/internal/store"
)

// Replacement candidates must seat at least this share of the broken table's
// capacity.
const replacementCapacityRatio = 0.8

// maxReplacementOptions caps the candidate list returned to operators.
const maxReplacementOptions = 5

// TableService owns the dine-in table lifecycle: creation, status changes,
// merge groups, order transfer, and merge-group member replacement.
type TableService struct {
	tables   TableStore
	orders   OrderStore
	kots     KOTStore
	bookings BookingStore
	tx       TxRunner
	pub      event.Publisher
}

// TableServiceDeps collects the service's collaborators. Publisher may be nil
// when event delivery is not configured.
type TableServiceDeps struct {
	Tables    TableStore
	Orders    OrderStore
	KOTs      KOTStore
	Bookings  BookingStore
	Tx        TxRunner
	Publisher event.Publisher
}

func NewTableService(deps TableServiceDeps) *TableService {
	return &TableService{
		tables:   deps.Tables,
		orders:   deps.Orders,
		kots:     deps.KOTs,
		bookings: deps.Bookings,
		tx:       deps.Tx,
		pub:      deps.Publisher,
	}
}

// CreateTableRequest describes a new physical table.
type CreateTableRequest struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

// CreateTable registers a physical table. Numbers are unique per tenant; the
// synthetic prefix is reserved for merge groups.
func (s *TableService) CreateTable(ctx context.Context, slug string, req CreateTableRequest) (*model.Table, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, Validation("table number is required")
	}
	if strings.HasPrefix(req.Number, model.MergeNumberPrefix) {
		return nil, Validation("table number prefix %q is reserved for merge groups", model.MergeNumberPrefix)
	}
	if req.Capacity <= 0 {
		return nil, Validation("table capacity must be positive")
	}
	if req.Location == "" {
		req.Location = model.LocationIndoor
	}
	if req.Location != model.LocationIndoor {
		return nil, Validation("unknown table location %q", req.Location)
	}

	table := &model.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
		Status:   model.TableAvailable,
		IsActive: true,
	}
	if err := s.tables.InsertTable(ctx, slug, table); err != nil {
		if isDuplicate(err) {
			monitoring.TableOperations.WithLabelValues("create", "conflict").Inc()
			return nil, Conflict("table number %s already exists", req.Number)
		}
		return nil, Infra(err, "cannot create table")
	}
	monitoring.TableOperations.WithLabelValues("create", "ok").Inc()
	return table, nil
}

// ListTables returns every table of the tenant, physical and synthetic.
func (s *TableService) ListTables(ctx context.Context, slug string) ([]model.Table, error) {
	tables, err := s.tables.ListTables(ctx, slug)
	if err != nil {
		return nil, Infra(err, "cannot list tables")
	}
	return tables, nil
}

// StatusUpdateResult reports a status change. NeedsReplacement is set when a
// member of an active merge group went into maintenance; it is informational
// and never blocks the change.
type StatusUpdateResult struct {
	Table            *model.Table `json:"table"`
	NeedsReplacement bool         `json:"needs_replacement"`
	MergeGroup       *model.Table `json:"merge_group,omitempty"`
}

// UpdateStatus overwrites a table's status.
func (s *TableService) UpdateStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.TableStatus) (*StatusUpdateResult, error) {
	if !status.Valid() {
		return nil, Validation("unknown table status %q", status)
	}
	table, err := s.tables.FindTableByID(ctx, slug, id)
	if err != nil {
		return nil, Infra(err, "cannot load table")
	}
	if table == nil {
		return nil, NotFound("table %s not found", id.Hex())
	}

	previous := table.Status
	if err := s.tables.SetTableStatus(ctx, slug, id, status); err != nil {
		return nil, Infra(err, "cannot update table status")
	}
	table.Status = status

	result := &StatusUpdateResult{Table: table}
	if status == model.TableMaintenance && !table.IsSynthetic() {
		group, err := s.tables.FindActiveMergeGroupFor(ctx, slug, id)
		if err != nil {
			return nil, Infra(err, "cannot check merge-group membership")
		}
		if group != nil {
			result.NeedsReplacement = true
			result.MergeGroup = group
		}
	}

	s.publishStatus(ctx, slug, table, previous, "status_update")
	monitoring.TableOperations.WithLabelValues("update_status", "ok").Inc()
	return result, nil
}

// mergeNumberAttempts bounds retries when concurrent merges collide on the
// sequential group number.
const mergeNumberAttempts = 3

// MergeTables combines two or more available tables into one synthetic table
// with the summed capacity. Members stay addressable (OCCUPIED) for later
// replacement or un-merge. The group insert and member status writes commit
// in one transaction.
func (s *TableService) MergeTables(ctx context.Context, slug string, tableIDs []primitive.ObjectID, guestCount int) (*model.Table, error) {
	if len(tableIDs) < 2 {
		return nil, Validation("merging requires at least 2 tables")
	}
	if guestCount <= 0 {
		return nil, Validation("guest count must be positive")
	}
	seen := make(map[primitive.ObjectID]bool, len(tableIDs))
	for _, id := range tableIDs {
		if seen[id] {
			return nil, Validation("table %s listed twice", id.Hex())
		}
		seen[id] = true
	}

	var (
		group   *model.Table
		members []model.Table
	)
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		members = members[:0]
		capacity := 0
		for _, id := range tableIDs {
			t, err := s.tables.FindTableByID(txCtx, slug, id)
			if err != nil {
				return Infra(err, "cannot load table")
			}
			if t == nil {
				return NotFound("table %s not found", id.Hex())
			}
			if t.Status != model.TableAvailable {
				return Conflict("table %s is %s, not AVAILABLE", t.Number, t.Status)
			}
			members = append(members, *t)
			capacity += t.Capacity
		}
		if guestCount > capacity {
			return Conflict("guest count %d exceeds combined capacity %d", guestCount, capacity)
		}

		// Concurrent merges can race on the sequential number; the unique
		// index rejects the loser, which re-reads and retries.
		var insertErr error
		for attempt := 0; attempt < mergeNumberAttempts; attempt++ {
			seq, err := s.tables.MaxMergeSequence(txCtx, slug)
			if err != nil {
				return Infra(err, "cannot derive merge-group number")
			}
			group = &model.Table{
				Number:           fmt.Sprintf("%s%03d", model.MergeNumberPrefix, seq+1),
				Capacity:         capacity,
				Location:         members[0].Location,
				Status:           model.TableOccupied,
				IsActive:         true,
				MergedWith:       tableIDs,
				MergedGuestCount: guestCount,
			}
			insertErr = s.tables.InsertTable(txCtx, slug, group)
			if insertErr == nil || !isDuplicate(insertErr) {
				break
			}
		}
		if insertErr != nil {
			if isDuplicate(insertErr) {
				return Conflict("merge-group number %s already taken, retry", group.Number)
			}
			return Infra(insertErr, "cannot create merge group")
		}

		for _, m := range members {
			if err := s.tables.SetTableStatus(txCtx, slug, m.ID, model.TableOccupied); err != nil {
				return Infra(err, "cannot occupy merge member")
			}
		}
		return nil
	})
	if err != nil {
		monitoring.TableOperations.WithLabelValues("merge", resultLabel(err)).Inc()
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, Infra(err, "merge transaction aborted")
	}

	for _, m := range members {
		prev := m.Status
		m.Status = model.TableOccupied
		s.publishStatus(ctx, slug, &m, prev, "merge")
	}
	s.publishMerge(ctx, slug, group, event.EventTableMerged)
	monitoring.TableOperations.WithLabelValues("merge", "ok").Inc()
	return group, nil
}

func resultLabel(err error) string {
	if KindOf(err) == KindConflict {
		return "conflict"
	}
	return "error"
}

// TransferOrder moves an order and its KOTs to another table. The vacated
// table goes to MAINTENANCE for inspection before reuse; the target becomes
// OCCUPIED. The order, KOT, and table writes commit in one transaction.
func (s *TableService) TransferOrder(ctx context.Context, slug string, orderID, targetTableID primitive.ObjectID) (*model.Order, error) {
	var (
		order  *model.Order
		source *model.Table
		target *model.Table
	)
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orders.FindOrderByID(txCtx, slug, orderID)
		if err != nil {
			return Infra(err, "cannot load order")
		}
		if order == nil {
			return NotFound("order %s not found", orderID.Hex())
		}
		if order.TableID == nil {
			return Conflict("order %s has no table assigned", order.OrderNumber)
		}
		if order.Status.Terminal() {
			return Conflict("order %s is %s and cannot be transferred", order.OrderNumber, order.Status)
		}
		if *order.TableID == targetTableID {
			return Validation("order %s is already on that table", order.OrderNumber)
		}

		target, err = s.tables.FindTableByID(txCtx, slug, targetTableID)
		if err != nil {
			return Infra(err, "cannot load target table")
		}
		if target == nil {
			return NotFound("table %s not found", targetTableID.Hex())
		}
		if target.Status != model.TableAvailable {
			return Conflict("target table %s is %s, not AVAILABLE", target.Number, target.Status)
		}

		source, err = s.tables.FindTableByID(txCtx, slug, *order.TableID)
		if err != nil {
			return Infra(err, "cannot load source table")
		}

		if err := s.orders.SetOrderTable(txCtx, slug, orderID, target.ID, target.Number); err != nil {
			return Infra(err, "cannot move order")
		}
		if err := s.kots.SetKOTTableForOrder(txCtx, slug, orderID, target.ID, target.Number); err != nil {
			return Infra(err, "cannot move KOTs")
		}
		if source != nil {
			if err := s.tables.SetTableStatus(txCtx, slug, source.ID, model.TableMaintenance); err != nil {
				return Infra(err, "cannot release source table")
			}
		}
		if err := s.tables.SetTableStatus(txCtx, slug, target.ID, model.TableOccupied); err != nil {
			return Infra(err, "cannot occupy target table")
		}
		return nil
	})
	if err != nil {
		monitoring.TableOperations.WithLabelValues("transfer", resultLabel(err)).Inc()
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, Infra(err, "transfer transaction aborted")
	}

	if source != nil {
		prev := source.Status
		source.Status = model.TableMaintenance
		s.publishStatus(ctx, slug, source, prev, "transfer_out")
	}
	prev := target.Status
	target.Status = model.TableOccupied
	s.publishStatus(ctx, slug, target, prev, "transfer_in")
	s.publishTransfer(ctx, slug, order, target.ID)
	monitoring.TableOperations.WithLabelValues("transfer", "ok").Inc()

	order.TableID = &target.ID
	order.TableNumber = target.Number
	return order, nil
}

// minReplacementCapacity is ceil(replacementCapacityRatio * capacity).
func minReplacementCapacity(capacity int) int {
	return (4*capacity + 4) / 5
}

// ReplacementOptions returns up to maxReplacementOptions candidate tables to
// substitute for a broken merge-group member, smallest sufficient first.
func (s *TableService) ReplacementOptions(ctx context.Context, slug string, tableID primitive.ObjectID) ([]model.Table, error) {
	table, err := s.tables.FindTableByID(ctx, slug, tableID)
	if err != nil {
		return nil, Infra(err, "cannot load table")
	}
	if table == nil {
		return nil, NotFound("table %s not found", tableID.Hex())
	}
	if table.Status != model.TableMaintenance {
		return nil, Conflict("table %s is %s, not MAINTENANCE", table.Number, table.Status)
	}

	group, err := s.tables.FindActiveMergeGroupFor(ctx, slug, tableID)
	if err != nil {
		return nil, Infra(err, "cannot look up merge group")
	}
	if group == nil {
		return nil, Conflict("table %s is not part of an active merge group", table.Number)
	}

	exclude := append([]primitive.ObjectID{group.ID}, group.MergedWith...)
	candidates, err := s.tables.FindReplacementCandidates(ctx, slug,
		minReplacementCapacity(table.Capacity), exclude, maxReplacementOptions)
	if err != nil {
		return nil, Infra(err, "cannot find replacement candidates")
	}
	if len(candidates) == 0 {
		return nil, Conflict("no qualifying replacement tables for %s", table.Number)
	}
	return candidates, nil
}

// TransferAndMerge replaces a broken member of a merge group with the chosen
// replacement, re-forming the group around it. The whole operation runs in a
// single transaction: new synthetic table, order and KOT re-pointing, and all
// status changes commit together or not at all.
func (s *TableService) TransferAndMerge(ctx context.Context, slug string, brokenID, replacementID primitive.ObjectID) (*model.Table, error) {
	var (
		newGroup *model.Table
		oldGroup *model.Table
	)

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		broken, err := s.tables.FindTableByID(txCtx, slug, brokenID)
		if err != nil {
			return Infra(err, "cannot load broken table")
		}
		if broken == nil {
			return NotFound("table %s not found", brokenID.Hex())
		}
		if broken.Status != model.TableMaintenance {
			return Conflict("table %s is %s, not MAINTENANCE", broken.Number, broken.Status)
		}

		group, err := s.tables.FindActiveMergeGroupFor(txCtx, slug, brokenID)
		if err != nil {
			return Infra(err, "cannot look up merge group")
		}
		if group == nil {
			return Conflict("table %s is not part of an active merge group", broken.Number)
		}
		oldGroup = group

		replacement, err := s.tables.FindTableByID(txCtx, slug, replacementID)
		if err != nil {
			return Infra(err, "cannot load replacement table")
		}
		if replacement == nil {
			return NotFound("table %s not found", replacementID.Hex())
		}
		if replacement.IsSynthetic() {
			return Conflict("table %s is a merge group and cannot be a member", replacement.Number)
		}
		if group.HasMember(replacementID) {
			return Conflict("table %s is already part of the merge group", replacement.Number)
		}
		if replacement.Status != model.TableAvailable || !replacement.IsActive {
			return Conflict("replacement table %s is not available", replacement.Number)
		}
		if replacement.Capacity < minReplacementCapacity(broken.Capacity) {
			return Conflict("replacement table %s seats %d, need at least %d",
				replacement.Number, replacement.Capacity, minReplacementCapacity(broken.Capacity))
		}

		// Re-form the member list around the replacement and resum capacity
		// from fresh member reads.
		newMembers := make([]primitive.ObjectID, 0, len(group.MergedWith))
		capacity := replacement.Capacity
		keepOccupied := make([]*model.Table, 0, len(group.MergedWith))
		for _, memberID := range group.MergedWith {
			if memberID == brokenID {
				newMembers = append(newMembers, replacementID)
				continue
			}
			member, err := s.tables.FindTableByID(txCtx, slug, memberID)
			if err != nil {
				return Infra(err, "cannot load group member")
			}
			if member == nil {
				return Conflict("merge-group member %s no longer exists", memberID.Hex())
			}
			newMembers = append(newMembers, memberID)
			capacity += member.Capacity
			keepOccupied = append(keepOccupied, member)
		}

		replacementGroup := &model.Table{
			Number:           replacementNumber(),
			Capacity:         capacity,
			Location:         group.Location,
			Status:           model.TableOccupied,
			IsActive:         true,
			MergedWith:       newMembers,
			MergedGuestCount: group.MergedGuestCount,
		}
		if err := s.tables.InsertTable(txCtx, slug, replacementGroup); err != nil {
			return Infra(err, "cannot create replacement merge group")
		}

		activeOrders, err := s.orders.FindActiveOrdersByTable(txCtx, slug, group.ID)
		if err != nil {
			return Infra(err, "cannot load orders on merge group")
		}
		orderIDs := make([]primitive.ObjectID, 0, len(activeOrders))
		for _, o := range activeOrders {
			if err := s.orders.SetOrderTable(txCtx, slug, o.ID, replacementGroup.ID, replacementGroup.Number); err != nil {
				return Infra(err, "cannot re-point order")
			}
			orderIDs = append(orderIDs, o.ID)
		}
		if err := s.kots.RepointKOTs(txCtx, slug, orderIDs, group.ID, replacementGroup.ID, replacementGroup.Number); err != nil {
			return Infra(err, "cannot re-point KOTs")
		}

		if err := s.tables.SetTableStatus(txCtx, slug, brokenID, model.TableMaintenance); err != nil {
			return Infra(err, "cannot retire broken table")
		}
		if err := s.tables.SetTableStatus(txCtx, slug, group.ID, model.TableMaintenance); err != nil {
			return Infra(err, "cannot retire old merge group")
		}
		for _, member := range keepOccupied {
			if err := s.tables.SetTableStatus(txCtx, slug, member.ID, model.TableOccupied); err != nil {
				return Infra(err, "cannot keep member occupied")
			}
		}
		if err := s.tables.SetTableStatus(txCtx, slug, replacementID, model.TableOccupied); err != nil {
			return Infra(err, "cannot occupy replacement table")
		}

		newGroup = replacementGroup
		return nil
	})
	if err != nil {
		monitoring.TableOperations.WithLabelValues("transfer_and_merge", "error").Inc()
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, Infra(err, "replacement transaction aborted")
	}

	s.publishMerge(ctx, slug, newGroup, event.EventTableReplaced)
	if oldGroup != nil {
		s.publishStatus(ctx, slug, oldGroup, oldGroup.Status, "replaced")
	}
	monitoring.TableOperations.WithLabelValues("transfer_and_merge", "ok").Inc()
	return newGroup, nil
}

// replacementNumber generates a randomized synthetic number for the
// replacement path, distinct from the sequential merge-create scheme.
func replacementNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%sR-%s", model.MergeNumberPrefix, strings.ToUpper(suffix))
}

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicateKey)
}

func (s *TableService) publishStatus(ctx context.Context, slug string, t *model.Table, previous model.TableStatus, reason string) {
	if s.pub == nil {
		return
	}
	ev := event.TableStatusEvent{
		EventType:      event.EventTableStatusChanged,
		TableID:        t.ID.Hex(),
		TableNumber:    t.Number,
		Status:         string(t.Status),
		PreviousStatus: string(previous),
		Reason:         reason,
		Tenant:         slug,
		OccurredAt:     time.Now().UTC(),
	}
	s.publish(ctx, event.TableStatusTopic, ev)
}

func (s *TableService) publishMerge(ctx context.Context, slug string, group *model.Table, eventType string) {
	if s.pub == nil || group == nil {
		return
	}
	memberIDs := make([]string, len(group.MergedWith))
	for i, id := range group.MergedWith {
		memberIDs[i] = id.Hex()
	}
	ev := event.TableMergeEvent{
		EventType:   eventType,
		GroupID:     group.ID.Hex(),
		GroupNumber: group.Number,
		MemberIDs:   memberIDs,
		GuestCount:  group.MergedGuestCount,
		Capacity:    group.Capacity,
		Tenant:      slug,
		OccurredAt:  time.Now().UTC(),
	}
	s.publish(ctx, event.TableStatusTopic, ev)
}

func (s *TableService) publishTransfer(ctx context.Context, slug string, order *model.Order, toTableID primitive.ObjectID) {
	if s.pub == nil {
		return
	}
	fromID := ""
	if order.TableID != nil {
		fromID = order.TableID.Hex()
	}
	ev := event.OrderTransferEvent{
		EventType:   event.EventOrderTransferred,
		OrderID:     order.ID.Hex(),
		FromTableID: fromID,
		ToTableID:   toTableID.Hex(),
		Tenant:      slug,
		OccurredAt:  time.Now().UTC(),
	}
	s.publish(ctx, event.OrderTableTopic, ev)
}

func (s *TableService) publish(ctx context.Context, topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, topic, data); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Event publish failed")
	}
}
