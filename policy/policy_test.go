package policy

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actor(id string, roles ...models.Role) Actor {
	return Actor{ID: id, Roles: models.NewRoleSet(roles...)}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		action Action
		res    Resource
		permit bool
		reason string
	}{
		{"admin writes anything", actor("a", models.RoleAdmin), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, true, ""},
		{"admin edits roles", actor("a", models.RoleAdmin), ActionCreate, Resource{Kind: KindRoles, OwnerID: "x"}, true, ""},
		{"staff writes billing", actor("s", models.RoleStaff), ActionWrite, Resource{Kind: KindBilling, OwnerID: "p"}, true, ""},
		{"staff reads records", actor("s", models.RoleStaff), ActionRead, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, true, ""},
		{"staff cannot write records", actor("s", models.RoleStaff), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, false, ReasonNoRole},
		{"staff cannot grant roles", actor("s", models.RoleStaff), ActionCreate, Resource{Kind: KindRoles, OwnerID: "x"}, false, ReasonNoRole},
		{"doctor writes own record", actor("d", models.RoleDoctor), ActionCreate, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, true, ""},
		{"doctor writes other's record", actor("d", models.RoleDoctor), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d2"}, false, ReasonNotOwner},
		{"doctor transitions own appointment", actor("d", models.RoleDoctor), ActionWrite, Resource{Kind: KindAppointments, OwnerID: "p", DoctorID: "d"}, true, ""},
		{"doctor reads own patient", actor("d", models.RoleDoctor), ActionRead, Resource{Kind: KindPatients, OwnerID: "p", CareTeam: []string{"d2", "d"}}, true, ""},
		{"doctor reads stranger", actor("d", models.RoleDoctor), ActionRead, Resource{Kind: KindPatients, OwnerID: "p", CareTeam: []string{"d2"}}, false, ReasonNotOwner},
		{"doctor writes patient", actor("d", models.RoleDoctor), ActionWrite, Resource{Kind: KindPatients, OwnerID: "p", CareTeam: []string{"d"}}, false, ReasonNoRole},
		{"doctor reads billing", actor("d", models.RoleDoctor), ActionRead, Resource{Kind: KindBilling, OwnerID: "p"}, false, ReasonNoRole},
		{"patient reads own bill", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindBilling, OwnerID: "p"}, true, ""},
		{"patient reads other bill", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindBilling, OwnerID: "q"}, false, ReasonNotOwner},
		{"patient writes own bill", actor("p", models.RolePatient), ActionWrite, Resource{Kind: KindBilling, OwnerID: "p"}, false, ReasonNoRole},
		{"patient writes other's record", actor("p", models.RolePatient), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "q", DoctorID: "d"}, false, ReasonNotOwner},
		{"patient writes own record", actor("p", models.RolePatient), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, false, ReasonNoRole},
		{"patient requests appointment", actor("p", models.RolePatient), ActionCreate, Resource{Kind: KindAppointments, OwnerID: "p", DoctorID: "d", Status: "scheduled"}, true, ""},
		{"patient requests completed appointment", actor("p", models.RolePatient), ActionCreate, Resource{Kind: KindAppointments, OwnerID: "p", DoctorID: "d", Status: "completed"}, false, ReasonWrongState},
		{"patient books for someone else", actor("p", models.RolePatient), ActionCreate, Resource{Kind: KindAppointments, OwnerID: "q", DoctorID: "d", Status: "scheduled"}, false, ReasonNotOwner},
		{"patient cancels appointment", actor("p", models.RolePatient), ActionWrite, Resource{Kind: KindAppointments, OwnerID: "p", DoctorID: "d"}, false, ReasonNoRole},
		{"patient browses doctors", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindDoctors, OwnerID: "d"}, true, ""},
		{"patient reads pharmacy", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindPharmacy}, false, ReasonNoRole},
		{"own profile", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindProfiles, OwnerID: "p"}, true, ""},
		{"own roles", actor("d", models.RoleDoctor), ActionRead, Resource{Kind: KindRoles, OwnerID: "d"}, true, ""},
		{"other profile", actor("p", models.RolePatient), ActionRead, Resource{Kind: KindProfiles, OwnerID: "q"}, false, ReasonNoRole},
		{"no roles", actor("x"), ActionRead, Resource{Kind: KindProfiles, OwnerID: "x"}, false, ReasonNoRole},
		{"union staff and doctor", actor("sd", models.RoleStaff, models.RoleDoctor), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "sd"}, true, ""},
		{"most specific reason wins", actor("sd", models.RoleStaff, models.RoleDoctor), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}, false, ReasonNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Authorize(tt.actor, tt.action, tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.permit, d.Permitted)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestMedicalRecordWritesOnlyByAttendingDoctor(t *testing.T) {
	res := Resource{Kind: KindMedicalRecords, OwnerID: "p", DoctorID: "d"}
	for _, role := range []models.Role{models.RoleStaff, models.RoleDoctor, models.RolePatient} {
		for _, id := range []string{"p", "d", "other"} {
			d, err := Authorize(actor(id, role), ActionWrite, res)
			require.NoError(t, err)
			want := role == models.RoleDoctor && id == "d"
			assert.Equal(t, want, d.Permitted, "%s as %s", id, role)
		}
	}
}

func TestAuthorizeRejectsMalformedInput(t *testing.T) {
	_, err := Authorize(actor("a", models.RoleAdmin), ActionRead, Resource{Kind: "insurance"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))

	_, err = Authorize(actor("a", models.RoleAdmin), Action("delete-all"), Resource{Kind: KindBilling})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))

	_, err = Authorize(Actor{ID: "a", Roles: models.RoleSet{"root"}}, ActionRead, Resource{Kind: KindBilling})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))
}

func TestCheck(t *testing.T) {
	err := Check(actor("p", models.RolePatient), ActionWrite, Resource{Kind: KindMedicalRecords, OwnerID: "q", DoctorID: "d"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDenied))

	e, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ReasonNotOwner, e.Reason)

	assert.NoError(t, Check(actor("p", models.RolePatient), ActionRead, Resource{Kind: KindMedicalRecords, OwnerID: "p"}))
}
