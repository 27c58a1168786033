// Package policy decides whether an actor may read or write a record. It is
// a pure function of its inputs: callers resolve ownership before asking and
// enforce the decision before touching storage.
package policy

import (
	"CareDesk/apperrors"
	"CareDesk/models"
)

// Kind names an entity store.
type Kind string

const (
	KindProfiles       Kind = "profiles"
	KindRoles          Kind = "roles"
	KindPatients       Kind = "patients"
	KindDoctors        Kind = "doctors"
	KindAppointments   Kind = "appointments"
	KindMedicalRecords Kind = "medical_records"
	KindBilling        Kind = "billing"
	KindPharmacy       Kind = "pharmacy"
)

func (k Kind) Valid() bool {
	switch k {
	case KindProfiles, KindRoles, KindPatients, KindDoctors,
		KindAppointments, KindMedicalRecords, KindBilling, KindPharmacy:
		return true
	}
	return false
}

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
	// ActionCreate is a write that introduces a new row.
	ActionCreate Action = "create"
)

func (a Action) Valid() bool {
	return a == ActionRead || a == ActionWrite || a == ActionCreate
}

func (a Action) writes() bool {
	return a == ActionWrite || a == ActionCreate
}

// Reason codes carried by a denial.
const (
	ReasonNoRole     = "no-role"
	ReasonNotOwner   = "not-owner"
	ReasonWrongState = "wrong-state"
)

// Actor is an authenticated profile and the union of its roles.
type Actor struct {
	ID    string
	Roles models.RoleSet
}

// Resource describes the record being accessed by kind and owner references.
// All ids are profile ids.
type Resource struct {
	Kind Kind
	// OwnerID is the profile owning the row: the patient for clinical and
	// billing rows, the profile itself for profiles and roles, the clinician
	// for doctor rows.
	OwnerID string
	// DoctorID is the attending clinician of an appointment or record.
	DoctorID string
	// CareTeam lists clinicians attending a patient row.
	CareTeam []string
	// Status is the state a create would produce, when it has one.
	Status string
}

type Decision struct {
	Permitted bool   `json:"permitted"`
	Reason    string `json:"reason,omitempty"`
}

// Err returns nil for a permit and a classified denial otherwise.
func (d Decision) Err(action Action, kind Kind) error {
	if d.Permitted {
		return nil
	}
	return apperrors.Denied(d.Reason, "%s on %s denied", action, kind)
}

func permit() Decision            { return Decision{Permitted: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

type rule func(actor Actor, action Action, res Resource) Decision

var rules = map[models.Role]rule{
	models.RoleAdmin:   adminRule,
	models.RoleStaff:   staffRule,
	models.RoleDoctor:  doctorRule,
	models.RolePatient: patientRule,
}

// Authorize evaluates the role rules in order admin, staff, doctor, patient.
// A role set is a union: the first held role that permits wins. When every
// held role denies, the most specific reason is reported.
func Authorize(actor Actor, action Action, res Resource) (Decision, error) {
	if !res.Kind.Valid() {
		return Decision{}, apperrors.InvalidValue("unknown resource kind %q", string(res.Kind))
	}
	if !action.Valid() {
		return Decision{}, apperrors.InvalidValue("unknown action %q", string(action))
	}
	for _, r := range actor.Roles {
		if !r.Valid() {
			return Decision{}, apperrors.InvalidValue("unknown role %q", string(r))
		}
	}

	reason := ReasonNoRole
	for _, role := range models.AllRoles {
		if !actor.Roles.Has(role) {
			continue
		}
		d := rules[role](actor, action, res)
		if d.Permitted {
			return d, nil
		}
		if specificity(d.Reason) > specificity(reason) {
			reason = d.Reason
		}
	}

	if len(actor.Roles) > 0 && selfService(actor, action, res) {
		return permit(), nil
	}
	return deny(reason), nil
}

// Check folds a denial into a classified error.
func Check(actor Actor, action Action, res Resource) error {
	d, err := Authorize(actor, action, res)
	if err != nil {
		return err
	}
	return d.Err(action, res.Kind)
}

func specificity(reason string) int {
	switch reason {
	case ReasonWrongState:
		return 2
	case ReasonNotOwner:
		return 1
	}
	return 0
}

func adminRule(Actor, Action, Resource) Decision {
	return permit()
}

func staffRule(_ Actor, action Action, res Resource) Decision {
	switch res.Kind {
	case KindPatients, KindDoctors, KindAppointments, KindBilling, KindPharmacy:
		return permit()
	case KindMedicalRecords:
		if action == ActionRead {
			return permit()
		}
	}
	return deny(ReasonNoRole)
}

func doctorRule(actor Actor, action Action, res Resource) Decision {
	switch res.Kind {
	case KindAppointments, KindMedicalRecords:
		if res.DoctorID != actor.ID {
			return deny(ReasonNotOwner)
		}
		return permit()
	case KindPatients:
		if action.writes() {
			return deny(ReasonNoRole)
		}
		if !contains(res.CareTeam, actor.ID) {
			return deny(ReasonNotOwner)
		}
		return permit()
	case KindDoctors:
		if action == ActionRead {
			return permit()
		}
	}
	return deny(ReasonNoRole)
}

func patientRule(actor Actor, action Action, res Resource) Decision {
	switch res.Kind {
	case KindPatients, KindMedicalRecords, KindBilling, KindAppointments:
		if d := ownRow(actor, res); !d.Permitted {
			return d
		}
		switch {
		case action == ActionRead:
			return permit()
		case action == ActionCreate && res.Kind == KindAppointments:
			if res.Status != "" && res.Status != string(models.AppointmentScheduled) {
				return deny(ReasonWrongState)
			}
			return permit()
		}
	case KindDoctors:
		if action == ActionRead {
			return permit()
		}
	}
	return deny(ReasonNoRole)
}

// selfService lets any role holder read its own profile and role list.
func selfService(actor Actor, action Action, res Resource) bool {
	if action != ActionRead {
		return false
	}
	return (res.Kind == KindProfiles || res.Kind == KindRoles) && res.OwnerID == actor.ID
}

func ownRow(actor Actor, res Resource) Decision {
	if res.OwnerID == "" || res.OwnerID != actor.ID {
		return deny(ReasonNotOwner)
	}
	return permit()
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
