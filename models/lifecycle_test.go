package models

import (
	"CareDesk/apperrors"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentTransitions(t *testing.T) {
	all := []AppointmentStatus{AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow}
	for _, from := range all {
		for _, to := range all {
			err := CheckAppointmentTransition(from, to)
			allowed := from == AppointmentScheduled && to != AppointmentScheduled
			if allowed {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition), "%s -> %s: %v", from, to, err)
			}
		}
	}
	assert.False(t, AppointmentScheduled.Terminal())
	assert.True(t, AppointmentNoShow.Terminal())
}

func TestBillTransitions(t *testing.T) {
	cases := []struct {
		from, to BillStatus
		ok       bool
	}{
		{BillPending, BillPaid, true},
		{BillPending, BillOverdue, true},
		{BillOverdue, BillPaid, true},
		{BillOverdue, BillPending, false},
		{BillPaid, BillPending, false},
		{BillPaid, BillOverdue, false},
		{BillPaid, BillPaid, false},
		{BillPending, BillPending, false},
	}
	for _, tc := range cases {
		err := CheckBillTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition), "%s -> %s: %v", tc.from, tc.to, err)
	}
	assert.True(t, BillPaid.Terminal())
}

func TestTransitionToUnknownStatus(t *testing.T) {
	err := CheckBillTransition(BillPending, BillStatus("refunded"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))
}

func TestEnumBoundaries(t *testing.T) {
	var a Appointment
	err := json.Unmarshal([]byte(`{"status":"rescheduled"}`), &a)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"status":"no-show"}`), &a))
	assert.Equal(t, AppointmentNoShow, a.Status)

	var g Gender
	assert.Error(t, g.Scan("unknown"))
	require.NoError(t, g.Scan([]byte("female")))
	assert.Equal(t, GenderFemale, g)

	_, err = Role("superuser").Value()
	assert.Error(t, err)

	_, err = ParseRole("staff")
	assert.NoError(t, err)
}

func TestRoleSetOrderAndDedup(t *testing.T) {
	set := NewRoleSet(RolePatient, RoleDoctor, RolePatient, RoleAdmin)
	assert.Equal(t, RoleSet{RoleAdmin, RoleDoctor, RolePatient}, set)
	assert.True(t, set.Has(RoleDoctor))
	assert.False(t, set.Has(RoleStaff))
}

func TestBillPastDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	assert.True(t, (&Bill{Status: BillPending, DueDate: &yesterday}).PastDue(now))
	assert.False(t, (&Bill{Status: BillPending, DueDate: &tomorrow}).PastDue(now))
	assert.False(t, (&Bill{Status: BillPaid, DueDate: &yesterday}).PastDue(now))
	assert.False(t, (&Bill{Status: BillPending}).PastDue(now))
}

func TestStockLevel(t *testing.T) {
	assert.Equal(t, "in-stock", (&Medicine{Stock: 250}).StockLevel())
	assert.Equal(t, "low-stock", (&Medicine{Stock: 180}).StockLevel())
	assert.Equal(t, "critical", (&Medicine{Stock: 15}).StockLevel())
}
