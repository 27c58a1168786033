package models

import (
	"CareDesk/apperrors"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is a capability tag held by a profile.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// AllRoles lists roles in policy evaluation order.
var AllRoles = []Role{RoleAdmin, RoleStaff, RoleDoctor, RolePatient}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleDoctor, RolePatient:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) { return parseEnum[Role]("role", s) }

func (r *Role) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, "role", r) }
func (r *Role) Scan(src interface{}) error { return scanEnum(src, "role", r) }
func (r Role) Value() (driver.Value, error) { return valueEnum(r, "role") }

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func ParseGender(s string) (Gender, error) { return parseEnum[Gender]("gender", s) }

func (g *Gender) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, "gender", g) }
func (g *Gender) Scan(src interface{}) error { return scanEnum(src, "gender", g) }
func (g Gender) Value() (driver.Value, error) { return valueEnum(g, "gender") }

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no-show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	return parseEnum[AppointmentStatus]("appointment status", s)
}

func (s *AppointmentStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, "appointment status", s)
}
func (s *AppointmentStatus) Scan(src interface{}) error {
	return scanEnum(src, "appointment status", s)
}
func (s AppointmentStatus) Value() (driver.Value, error) {
	return valueEnum(s, "appointment status")
}

type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

func (s BillStatus) Valid() bool {
	switch s {
	case BillPending, BillPaid, BillOverdue:
		return true
	}
	return false
}

func ParseBillStatus(s string) (BillStatus, error) { return parseEnum[BillStatus]("bill status", s) }

func (s *BillStatus) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, "bill status", s) }
func (s *BillStatus) Scan(src interface{}) error { return scanEnum(src, "bill status", s) }
func (s BillStatus) Value() (driver.Value, error) { return valueEnum(s, "bill status") }

// MovementKind tags a stock ledger entry.
type MovementKind string

const (
	MovementInitial  MovementKind = "initial"
	MovementDispense MovementKind = "dispense"
	MovementRestock  MovementKind = "restock"
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementInitial, MovementDispense, MovementRestock:
		return true
	}
	return false
}

func (k *MovementKind) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, "movement kind", k) }
func (k *MovementKind) Scan(src interface{}) error { return scanEnum(src, "movement kind", k) }
func (k MovementKind) Value() (driver.Value, error) { return valueEnum(k, "movement kind") }

type enum interface {
	~string
	Valid() bool
}

func parseEnum[T enum](name, s string) (T, error) {
	v := T(s)
	if !v.Valid() {
		var zero T
		return zero, apperrors.InvalidValue("unknown %s %q", name, s)
	}
	return v, nil
}

func unmarshalEnum[T enum](b []byte, name string, dst *T) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperrors.InvalidValue("%s must be a string", name)
	}
	v, err := parseEnum[T](name, s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func scanEnum[T enum](src interface{}, name string, dst *T) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, name)
	}
	v, err := parseEnum[T](name, s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func valueEnum[T enum](v T, name string) (driver.Value, error) {
	if !v.Valid() {
		return nil, apperrors.InvalidValue("unknown %s %q", name, string(v))
	}
	return string(v), nil
}
