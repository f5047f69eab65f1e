package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   ReservationFilter
		contains []string
		absent   []string
		args     []any
	}{
		{
			name:   "organization only",
			absent: []string{"JOIN", "hall_id", "starts_at >="},
			args:   []any{uint64(4)},
		},
		{
			name:     "hall",
			filter:   ReservationFilter{HallID: 2},
			contains: []string{"JOIN dining_tables t", "AND t.hall_id = ?"},
			args:     []any{uint64(4), uint64(2)},
		},
		{
			name:     "date uses the whole UTC day",
			filter:   ReservationFilter{Date: day.Add(15 * time.Hour)},
			contains: []string{"r.starts_at >= ? AND r.starts_at < ?"},
			args:     []any{uint64(4), day, day.Add(24 * time.Hour)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := buildListQuery(4, tt.filter)
			for _, s := range tt.contains {
				assert.Contains(t, q, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, q, s)
			}
			assert.Equal(t, tt.args, args)
			assert.Contains(t, q, "ORDER BY r.starts_at, r.id")
		})
	}
}
