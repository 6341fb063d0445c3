package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/monitoring"
)

// ReserveTableRequest books a table for a party and a time window.
type ReserveTableRequest struct {
	TableID      primitive.ObjectID `json:"table_id"`
	CustomerName string             `json:"customer_name"`
	Phone        string             `json:"phone"`
	GuestCount   int                `json:"guest_count"`
	StartsAt     time.Time          `json:"starts_at"`
	EndsAt       time.Time          `json:"ends_at"`
}

// ReserveTable books an available table, moving it to RESERVED until the
// party is seated or the booking is cancelled.
func (s *TableService) ReserveTable(ctx context.Context, slug string, req ReserveTableRequest) (*model.TableBooking, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, Validation("customer name is required")
	}
	if req.GuestCount <= 0 {
		return nil, Validation("guest count must be positive")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, Validation("booking window must end after it starts")
	}

	table, err := s.tables.FindTableByID(ctx, slug, req.TableID)
	if err != nil {
		return nil, Infra(err, "cannot load table")
	}
	if table == nil {
		return nil, NotFound("table %s not found", req.TableID.Hex())
	}
	if table.Status != model.TableAvailable {
		return nil, Conflict("table %s is %s, not AVAILABLE", table.Number, table.Status)
	}
	if req.GuestCount > table.Capacity {
		return nil, Conflict("guest count %d exceeds capacity %d of table %s", req.GuestCount, table.Capacity, table.Number)
	}

	booking := &model.TableBooking{
		TableID:      table.ID,
		TableNumber:  table.Number,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		GuestCount:   req.GuestCount,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Status:       model.BookingBooked,
	}
	if err := s.bookings.InsertBooking(ctx, slug, booking); err != nil {
		return nil, Infra(err, "cannot create booking")
	}
	if err := s.tables.SetTableStatus(ctx, slug, table.ID, model.TableReserved); err != nil {
		return nil, Infra(err, "booking created but table not reserved")
	}
	prev := table.Status
	table.Status = model.TableReserved
	s.publishStatus(ctx, slug, table, prev, "booking")
	monitoring.TableOperations.WithLabelValues("reserve", "ok").Inc()
	return booking, nil
}

// CancelBooking cancels an open booking and frees its table if it is still
// reserved.
func (s *TableService) CancelBooking(ctx context.Context, slug string, bookingID primitive.ObjectID) error {
	booking, err := s.bookings.FindBookingByID(ctx, slug, bookingID)
	if err != nil {
		return Infra(err, "cannot load booking")
	}
	if booking == nil {
		return NotFound("booking %s not found", bookingID.Hex())
	}
	if booking.Status != model.BookingBooked {
		return Conflict("booking %s is %s and cannot be cancelled", bookingID.Hex(), booking.Status)
	}

	if err := s.bookings.SetBookingStatus(ctx, slug, bookingID, model.BookingCancelled); err != nil {
		return Infra(err, "cannot cancel booking")
	}

	table, err := s.tables.FindTableByID(ctx, slug, booking.TableID)
	if err != nil {
		return Infra(err, "booking cancelled but table not checked")
	}
	if table != nil && table.Status == model.TableReserved {
		if err := s.tables.SetTableStatus(ctx, slug, table.ID, model.TableAvailable); err != nil {
			return Infra(err, "booking cancelled but table not freed")
		}
		prev := table.Status
		table.Status = model.TableAvailable
		s.publishStatus(ctx, slug, table, prev, "booking_cancelled")
	}
	monitoring.TableOperations.WithLabelValues("reserve", "cancelled").Inc()
	return nil
}
