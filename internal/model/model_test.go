package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/restaurant-manager/internal/layout"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ReservationBooked, ReservationSeated, true},
		{ReservationBooked, ReservationCancelled, true},
		{ReservationBooked, ReservationNoShow, true},
		{ReservationSeated, ReservationCompleted, true},
		{ReservationBooked, ReservationCompleted, false},
		{ReservationSeated, ReservationCancelled, false},
		{ReservationCompleted, ReservationBooked, false},
		{ReservationCancelled, ReservationBooked, false},
		{ReservationNoShow, ReservationSeated, false},
		{ReservationBooked, ReservationBooked, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTableLayoutConversion(t *testing.T) {
	rows := []Table{
		{ID: 7, HallID: 1, TableNumber: "A1", Capacity: 4, PosX: 10, PosY: 20, IsVertical: true},
	}
	got := LayoutTables(rows)
	assert.Equal(t, []layout.Table{{
		ID: 7, TableNumber: "A1", Capacity: 4, Position: layout.Point{X: 10, Y: 20}, IsVertical: true,
	}}, got)
	assert.Equal(t, []TablePosition{{ID: 7, PosX: 10, PosY: 20}}, PositionsOf(got))
}

func TestInventoryLow(t *testing.T) {
	assert.True(t, InventoryItem{Quantity: 1, MinQuantity: 2}.Low())
	assert.False(t, InventoryItem{Quantity: 2, MinQuantity: 2}.Low())
}

func TestReservationActive(t *testing.T) {
	assert.True(t, Reservation{Status: ReservationBooked}.Active())
	assert.True(t, Reservation{Status: ReservationSeated}.Active())
	assert.False(t, Reservation{Status: ReservationCancelled}.Active())
}
