package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/repositories/memstore"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *repositories.Store
	svc   *Services

	admin, staff  policy.Actor
	doctor        policy.Actor
	patient       policy.Actor
	otherPatient  policy.Actor
	doctorRow     *models.Doctor
	patientRow    *models.Patient
	otherPatientR *models.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.NewDB()
	db.SetClock(func() time.Time { return fixedNow })
	store := db.Store()
	f := &fixture{store: store, svc: New(store, Options{Clock: func() time.Time { return fixedNow }})}

	f.admin = f.actor(t, "admin@example.com", models.RoleAdmin)
	f.staff = f.actor(t, "staff@example.com", models.RoleStaff)
	f.doctor = f.actor(t, "doctor@example.com", models.RoleDoctor)
	f.patient = f.actor(t, "patient@example.com", models.RolePatient)
	f.otherPatient = f.actor(t, "other@example.com", models.RolePatient)

	ctx := context.Background()
	d := &models.Doctor{UserID: f.doctor.ID, Specialization: "Cardiology"}
	require.NoError(t, f.svc.Doctors.Create(ctx, f.staff, d))
	f.doctorRow = d

	p := &models.Patient{UserID: f.patient.ID, DOB: "1990-01-01", Gender: models.GenderFemale}
	require.NoError(t, f.svc.Patients.Create(ctx, f.staff, p))
	f.patientRow = p

	o := &models.Patient{UserID: f.otherPatient.ID, DOB: "1985-03-02", Gender: models.GenderMale}
	require.NoError(t, f.svc.Patients.Create(ctx, f.staff, o))
	f.otherPatientR = o
	return f
}

// actor creates a profile holding roles and resolves it.
func (f *fixture) actor(t *testing.T, email string, roles ...models.Role) policy.Actor {
	t.Helper()
	ctx := context.Background()
	prof := &models.Profile{ID: models.NewID(), Name: email, Email: email}
	require.NoError(t, f.store.Profiles.Create(ctx, prof))
	for _, r := range roles {
		require.NoError(t, f.store.Roles.Assign(ctx, &models.RoleAssignment{ID: models.NewID(), UserID: prof.ID, Role: r}))
	}
	a, err := f.svc.Access.ResolveActor(ctx, prof.ID)
	require.NoError(t, err)
	return a
}

func (f *fixture) book(t *testing.T) *models.Appointment {
	t.Helper()
	a := &models.Appointment{PatientID: f.patientRow.PatientID, DoctorID: f.doctorRow.DoctorID, AppointmentDate: fixedNow.Add(time.Hour)}
	require.NoError(t, f.svc.Appointments.Create(context.Background(), f.staff, a))
	return a
}

func assertDenied(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperrors.As(err)
	require.True(t, ok, "unclassified error %v", err)
	assert.Equal(t, apperrors.KindDenied, e.Kind)
	assert.Equal(t, reason, e.Reason)
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "got %v", err)
}

func TestResolveActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, models.RoleSet{models.RoleDoctor}, f.doctor.Roles)

	_, err := f.svc.Access.ResolveActor(ctx, "ghost")
	assertKind(t, err, apperrors.KindUnauthenticated)
}

func TestAssignAndRevokeRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Access.AssignRole(ctx, f.staff, f.patient.ID, models.RoleStaff)
	assertDenied(t, err, policy.ReasonNoRole)

	ra, err := f.svc.Access.AssignRole(ctx, f.admin, f.doctor.ID, models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, ra.CreatedBy)

	_, err = f.svc.Access.AssignRole(ctx, f.admin, f.doctor.ID, models.RoleStaff)
	assertKind(t, err, apperrors.KindDuplicate)

	_, err = f.svc.Access.AssignRole(ctx, f.admin, "ghost", models.RoleStaff)
	assertKind(t, err, apperrors.KindReferenceNotFound)

	_, err = f.svc.Access.AssignRole(ctx, f.admin, f.doctor.ID, models.Role("root"))
	assertKind(t, err, apperrors.KindInvalidValue)

	actor, err := f.svc.Access.ResolveActor(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSet{models.RoleStaff, models.RoleDoctor}, actor.Roles)

	own, err := f.svc.Access.ListRoles(ctx, f.doctor, f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	_, err = f.svc.Access.ListRoles(ctx, f.patient, f.doctor.ID)
	assertDenied(t, err, policy.ReasonNoRole)

	require.NoError(t, f.svc.Access.RevokeRole(ctx, f.admin, ra.ID))
	actor, err = f.svc.Access.ResolveActor(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSet{models.RoleDoctor}, actor.Roles)
}

func TestOnboardingIsUniquePerProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Patients.Create(ctx, f.staff, &models.Patient{UserID: f.patient.ID, DOB: "1990-01-01", Gender: models.GenderFemale})
	assertKind(t, err, apperrors.KindDuplicate)

	err = f.svc.Patients.Create(ctx, f.staff, &models.Patient{UserID: "ghost", DOB: "1990-01-01", Gender: models.GenderFemale})
	assertKind(t, err, apperrors.KindReferenceNotFound)

	err = f.svc.Patients.Create(ctx, f.staff, &models.Patient{UserID: f.admin.ID, DOB: "2999-01-01", Gender: models.GenderFemale})
	assertKind(t, err, apperrors.KindInvalidValue)

	err = f.svc.Patients.Create(ctx, f.patient, &models.Patient{UserID: f.patient.ID, DOB: "1990-01-01", Gender: models.GenderFemale})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDenied))

	// a doctor may also be a patient
	require.NoError(t, f.svc.Patients.Create(ctx, f.staff, &models.Patient{UserID: f.doctor.ID, DOB: "1970-05-05", Gender: models.GenderOther}))
}

func TestPatientReadsAndUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Patients.Get(ctx, f.patient, f.patientRow.PatientID)
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, got.UserID)

	_, err = f.svc.Patients.Get(ctx, f.patient, f.otherPatientR.PatientID)
	assertDenied(t, err, policy.ReasonNotOwner)

	_, err = f.svc.Patients.Update(ctx, f.patient, &models.Patient{PatientID: f.patientRow.PatientID, DOB: "1990-01-01", Gender: models.GenderFemale, Phone: "555"})
	assertDenied(t, err, policy.ReasonNoRole)

	updated, err := f.svc.Patients.Update(ctx, f.staff, &models.Patient{PatientID: f.patientRow.PatientID, UserID: "hijack", DOB: "1990-01-02", Gender: models.GenderFemale, Phone: "+1 555 0100"})
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, updated.UserID)
	assert.Equal(t, "1990-01-02", updated.DOB)

	list, err := f.svc.Patients.List(ctx, f.patient, repositories.PatientFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.patientRow.PatientID, list[0].PatientID)

	all, err := f.svc.Patients.List(ctx, f.staff, repositories.PatientFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDoctorSeesOnlyAttendedPatients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Patients.Get(ctx, f.doctor, f.patientRow.PatientID)
	assertDenied(t, err, policy.ReasonNotOwner)

	list, err := f.svc.Patients.List(ctx, f.doctor, repositories.PatientFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	f.book(t)

	got, err := f.svc.Patients.Get(ctx, f.doctor, f.patientRow.PatientID)
	require.NoError(t, err)
	assert.Equal(t, f.patientRow.PatientID, got.PatientID)

	list, err = f.svc.Patients.List(ctx, f.doctor, repositories.PatientFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.patientRow.PatientID, list[0].PatientID)
}

func TestDeleteIsRestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t)

	err := f.svc.Patients.Delete(ctx, f.staff, f.patientRow.PatientID)
	assertKind(t, err, apperrors.KindReferenceInUse)

	err = f.svc.Doctors.Delete(ctx, f.staff, f.doctorRow.DoctorID)
	assertKind(t, err, apperrors.KindReferenceInUse)

	err = f.svc.Identity.DeleteProfile(ctx, f.admin, f.otherPatient.ID)
	assertKind(t, err, apperrors.KindReferenceInUse)

	require.NoError(t, f.svc.Patients.Delete(ctx, f.staff, f.otherPatientR.PatientID))
	require.NoError(t, f.svc.Identity.DeleteProfile(ctx, f.admin, f.otherPatient.ID))

	_, err = f.svc.Access.ResolveActor(ctx, f.otherPatient.ID)
	assertKind(t, err, apperrors.KindUnauthenticated)
}

func TestDoctorDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, a := range []policy.Actor{f.patient, f.doctor, f.staff} {
		list, err := f.svc.Doctors.List(ctx, a, repositories.DoctorFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}

	_, err := f.svc.Doctors.Update(ctx, f.doctor, &models.Doctor{DoctorID: f.doctorRow.DoctorID, Specialization: "Neurology"})
	assertDenied(t, err, policy.ReasonNoRole)

	updated, err := f.svc.Doctors.Update(ctx, f.staff, &models.Doctor{DoctorID: f.doctorRow.DoctorID, Specialization: "Neurology"})
	require.NoError(t, err)
	assert.Equal(t, "Neurology", updated.Specialization)
	assert.Equal(t, f.doctor.ID, updated.UserID)

	nobody := f.actor(t, "nobody@example.com")
	_, err = f.svc.Doctors.List(ctx, nobody, repositories.DoctorFilter{})
	assertDenied(t, err, policy.ReasonNoRole)
}
