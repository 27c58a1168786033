package models

import (
	"CareDesk/apperrors"
	"sort"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// RoleSet is the union of a profile's role assignments, kept in policy
// evaluation order without duplicates.
type RoleSet []Role

func NewRoleSet(roles ...Role) RoleSet {
	seen := make(map[Role]bool, len(roles))
	set := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		set = append(set, r)
	}
	sort.SliceStable(set, func(i, j int) bool { return roleRank(set[i]) < roleRank(set[j]) })
	return set
}

func roleRank(r Role) int {
	for i, known := range AllRoles {
		if known == r {
			return i
		}
	}
	return len(AllRoles)
}

func (s RoleSet) Has(r Role) bool {
	for _, held := range s {
		if held == r {
			return true
		}
	}
	return false
}

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckAppointmentTransition rejects any move outside
// scheduled -> {completed, cancelled, no-show}.
func CheckAppointmentTransition(from, to AppointmentStatus) error {
	if !to.Valid() {
		return apperrors.InvalidValue("unknown appointment status %q", string(to))
	}
	if !from.CanTransitionTo(to) {
		return apperrors.InvalidTransition("appointment cannot move from %s to %s", from, to)
	}
	return nil
}

// paid is terminal; overdue can still be paid.
var billTransitions = map[BillStatus][]BillStatus{
	BillPending: {BillPaid, BillOverdue},
	BillOverdue: {BillPaid},
}

func (s BillStatus) Terminal() bool {
	return len(billTransitions[s]) == 0
}

func (s BillStatus) CanTransitionTo(to BillStatus) bool {
	for _, next := range billTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func CheckBillTransition(from, to BillStatus) error {
	if !to.Valid() {
		return apperrors.InvalidValue("unknown bill status %q", string(to))
	}
	if !from.CanTransitionTo(to) {
		return apperrors.InvalidTransition("bill cannot move from %s to %s", from, to)
	}
	return nil
}
