package memstore

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/repositories"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPatient(t *testing.T, s *repositories.Store, email string) (*models.Profile, *models.Patient) {
	t.Helper()
	ctx := context.Background()
	prof := &models.Profile{ID: models.NewID(), Name: "Pat", Email: email}
	require.NoError(t, s.Profiles.Create(ctx, prof))
	p := &models.Patient{PatientID: models.NewID(), UserID: prof.ID, DOB: "1990-01-01", Gender: models.GenderFemale}
	require.NoError(t, s.Patients.Create(ctx, p))
	return prof, p
}

func seedDoctor(t *testing.T, s *repositories.Store, email string) (*models.Profile, *models.Doctor) {
	t.Helper()
	ctx := context.Background()
	prof := &models.Profile{ID: models.NewID(), Name: "Doc", Email: email}
	require.NoError(t, s.Profiles.Create(ctx, prof))
	d := &models.Doctor{DoctorID: models.NewID(), UserID: prof.ID, Specialization: "Cardiology"}
	require.NoError(t, s.Doctors.Create(ctx, d))
	return prof, d
}

func TestProfileUniquenessAndRestrict(t *testing.T) {
	ctx := context.Background()
	s := New()
	prof, p := seedPatient(t, s, "a@example.com")

	err := s.Profiles.Create(ctx, &models.Profile{ID: models.NewID(), Name: "Dup", Email: "A@example.com"})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))

	err = s.Patients.Create(ctx, &models.Patient{PatientID: models.NewID(), UserID: prof.ID, DOB: "1990-01-01", Gender: models.GenderMale})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))

	err = s.Profiles.Delete(ctx, prof.ID)
	assert.True(t, errors.Is(err, apperrors.ErrReferenceInUse))

	require.NoError(t, s.Patients.Delete(ctx, p.PatientID))
	require.NoError(t, s.Roles.Assign(ctx, &models.RoleAssignment{ID: models.NewID(), UserID: prof.ID, Role: models.RolePatient}))
	require.NoError(t, s.Profiles.Delete(ctx, prof.ID))

	roles, err := s.Roles.ListByUser(ctx, prof.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestCreateWithCredentialIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedPatient(t, s, "a@example.com")

	dup := &models.Profile{ID: models.NewID(), Name: "Dup", Email: "a@example.com"}
	err := s.Profiles.CreateWithCredential(ctx, dup, &models.Credential{PasswordHash: "hash"})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
	_, err = s.Credentials.Get(ctx, dup.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	fresh := &models.Profile{ID: models.NewID(), Name: "Fresh", Email: "b@example.com"}
	require.NoError(t, s.Profiles.CreateWithCredential(ctx, fresh, &models.Credential{PasswordHash: "hash"}))
	cred, err := s.Credentials.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", cred.PasswordHash)
}

func TestReferencesMustResolve(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, p := seedPatient(t, s, "p@example.com")

	err := s.Patients.Create(ctx, &models.Patient{PatientID: models.NewID(), UserID: "ghost", DOB: "1990-01-01", Gender: models.GenderMale})
	assert.True(t, errors.Is(err, apperrors.ErrReferenceNotFound))

	err = s.Appointments.Create(ctx, &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: "ghost",
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	})
	assert.True(t, errors.Is(err, apperrors.ErrReferenceNotFound))

	err = s.Roles.Assign(ctx, &models.RoleAssignment{ID: models.NewID(), UserID: "ghost", Role: models.RoleStaff})
	assert.True(t, errors.Is(err, apperrors.ErrReferenceNotFound))
}

func TestRoleAssignmentUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	prof, _ := seedPatient(t, s, "p@example.com")

	require.NoError(t, s.Roles.Assign(ctx, &models.RoleAssignment{ID: models.NewID(), UserID: prof.ID, Role: models.RoleStaff}))
	err := s.Roles.Assign(ctx, &models.RoleAssignment{ID: models.NewID(), UserID: prof.ID, Role: models.RoleStaff})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
}

func TestAppointmentStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, p := seedPatient(t, s, "p@example.com")
	_, d := seedDoctor(t, s, "d@example.com")

	a := &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: d.DoctorID,
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	}
	require.NoError(t, s.Appointments.Create(ctx, a))

	notes := "seen"
	require.NoError(t, s.Appointments.UpdateStatus(ctx, a.AppointmentID, models.AppointmentScheduled, models.AppointmentCompleted, &notes))

	err := s.Appointments.UpdateStatus(ctx, a.AppointmentID, models.AppointmentScheduled, models.AppointmentCancelled, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	err = s.Appointments.UpdateStatus(ctx, "missing", models.AppointmentScheduled, models.AppointmentCancelled, nil)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	got, err := s.Appointments.GetByID(ctx, a.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, got.Status)
	assert.Equal(t, "seen", got.Notes)
	require.NotNil(t, got.Patient)
	require.NotNil(t, got.Doctor)
	assert.Equal(t, d.UserID, got.Doctor.UserID)
}

func TestConcurrentDispenseExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &models.Medicine{MedicineID: "M005", Name: "Amoxicillin", Stock: 15, Price: 4.5}
	require.NoError(t, s.Medicines.Create(ctx, m, &models.StockMovement{MovementID: models.NewID(), Kind: models.MovementInitial, Delta: 15}))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Medicines.AdjustStock(ctx, "M005", 15, &models.StockMovement{
				MovementID: models.NewID(), Kind: models.MovementDispense, Delta: -10,
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got, err := s.Medicines.GetByID(ctx, "M005")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	moves, err := s.Medicines.Movements(ctx, "M005", repositories.Page{})
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestAdjustStockNeverNegative(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &models.Medicine{MedicineID: models.NewID(), Name: "Ibuprofen", Stock: 3}
	require.NoError(t, s.Medicines.Create(ctx, m, nil))

	_, err := s.Medicines.AdjustStock(ctx, m.MedicineID, 3, &models.StockMovement{MovementID: models.NewID(), Kind: models.MovementDispense, Delta: -4})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidValue))

	got, err := s.Medicines.GetByID(ctx, m.MedicineID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestUpdateMedicineLeavesStock(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &models.Medicine{MedicineID: models.NewID(), Name: "Ibuprofen", Stock: 30, Price: 1}
	require.NoError(t, s.Medicines.Create(ctx, m, nil))

	require.NoError(t, s.Medicines.Update(ctx, &models.Medicine{MedicineID: m.MedicineID, Name: "Ibuprofen 400", Stock: 999, Price: 2}))
	got, err := s.Medicines.GetByID(ctx, m.MedicineID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Stock)
	assert.Equal(t, "Ibuprofen 400", got.Name)
}

func TestBillFiltersAndSummary(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, p := seedPatient(t, s, "p@example.com")
	past := time.Now().Add(-48 * time.Hour)

	for _, b := range []models.Bill{
		{BillID: models.NewID(), PatientID: p.PatientID, Amount: 100, Status: models.BillPending, DueDate: &past},
		{BillID: models.NewID(), PatientID: p.PatientID, Amount: 50, Status: models.BillPaid, DueDate: &past},
		{BillID: models.NewID(), PatientID: p.PatientID, Amount: 25, Status: models.BillPending},
	} {
		b := b
		require.NoError(t, s.Bills.Create(ctx, &b))
	}

	now := time.Now()
	due, err := s.Bills.List(ctx, repositories.BillFilter{Status: models.BillPending, DueBefore: &now})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 100.0, due[0].Amount)

	sum, err := s.Bills.Summary(ctx, repositories.BillFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.BillingSummary{Paid: 50, Pending: 125, Count: 3}, sum)
}

func TestCareTeamAndAttendedBy(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, p := seedPatient(t, s, "p@example.com")
	_, other := seedPatient(t, s, "q@example.com")
	docProf, d := seedDoctor(t, s, "d@example.com")

	require.NoError(t, s.MedicalRecords.Create(ctx, &models.MedicalRecord{
		RecordID: models.NewID(), PatientID: p.PatientID, DoctorID: d.DoctorID, Diagnosis: "Flu",
	}))

	team, err := s.Patients.CareTeam(ctx, p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, []string{docProf.ID}, team)

	team, err = s.Patients.CareTeam(ctx, other.PatientID)
	require.NoError(t, err)
	assert.Empty(t, team)

	ids, err := s.Patients.AttendedBy(ctx, d.DoctorID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.PatientID}, ids)

	list, err := s.Patients.List(ctx, repositories.PatientFilter{IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.Patients.List(ctx, repositories.PatientFilter{IDs: ids})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Profile)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	s := db.Store()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Profiles.Create(ctx, &models.Profile{ID: models.NewID(), Name: "n", Email: string(rune('a'+i)) + "@example.com"}))
	}

	first, err := s.Profiles.List(ctx, repositories.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "e@example.com", first[0].Email)

	rest, err := s.Profiles.List(ctx, repositories.Page{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a@example.com", rest[0].Email)

	none, err := s.Profiles.List(ctx, repositories.Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPatientSearchByProfile(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, ada := seedPatient(t, s, "ada.lovelace@example.com")
	_, grace := seedPatient(t, s, "grace@navy.mil")
	require.NoError(t, s.Profiles.Create(ctx, &models.Profile{ID: models.NewID(), Name: "Lovelace Fan", Email: "fan@example.com"}))

	byEmail, err := s.Patients.List(ctx, repositories.PatientFilter{Search: "LOVELACE"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, ada.PatientID, byEmail[0].PatientID)

	byDomain, err := s.Patients.List(ctx, repositories.PatientFilter{Search: " navy "})
	require.NoError(t, err)
	require.Len(t, byDomain, 1)
	assert.Equal(t, grace.PatientID, byDomain[0].PatientID)

	byName, err := s.Patients.List(ctx, repositories.PatientFilter{Search: "pat"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	none, err := s.Patients.List(ctx, repositories.PatientFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
