package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTableStatusValid(t *testing.T) {
	for _, s := range []TableStatus{TableAvailable, TableOccupied, TableReserved, TableMaintenance} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, TableStatus("BROKEN").Valid())
	assert.False(t, TableStatus("").Valid())
	assert.False(t, TableStatus("available").Valid())
}

func TestTableIsSynthetic(t *testing.T) {
	assert.False(t, (&Table{Number: "T1"}).IsSynthetic())
	assert.False(t, (&Table{Number: "12"}).IsSynthetic())
	assert.True(t, (&Table{Number: "MT-001"}).IsSynthetic())
	assert.True(t, (&Table{Number: "MT-R-3FA2B1"}).IsSynthetic())
}

func TestTableHasMember(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	group := &Table{Number: "MT-001", MergedWith: []primitive.ObjectID{a}}
	assert.True(t, group.HasMember(a))
	assert.False(t, group.HasMember(b))
	assert.False(t, (&Table{Number: "T1"}).HasMember(a))
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderPending, OrderAccepted},
		{OrderAccepted, OrderPreparing},
		{OrderPreparing, OrderReady},
		{OrderReady, OrderServed},
		{OrderServed, OrderComplete},
		{OrderPending, OrderCancelled},
		{OrderServed, OrderCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderPending, OrderPreparing},
		{OrderPending, OrderComplete},
		{OrderAccepted, OrderServed},
		{OrderComplete, OrderCancelled},
		{OrderCancelled, OrderPending},
		{OrderReady, OrderPreparing},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderComplete.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	for _, s := range []OrderStatus{OrderPending, OrderAccepted, OrderPreparing, OrderReady, OrderServed} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestKOTStatusTransitions(t *testing.T) {
	assert.True(t, KOTPending.CanTransition(KOTInProgress))
	assert.True(t, KOTPending.CanTransition(KOTCancelled))
	assert.True(t, KOTInProgress.CanTransition(KOTCompleted))
	assert.True(t, KOTInProgress.CanTransition(KOTCancelled))

	assert.False(t, KOTPending.CanTransition(KOTCompleted))
	assert.False(t, KOTCompleted.CanTransition(KOTCancelled))
	assert.False(t, KOTCancelled.CanTransition(KOTPending))
}
