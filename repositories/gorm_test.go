package repositories_test

import (
	"CareDesk/apperrors"
	"CareDesk/config"
	"CareDesk/database"
	"CareDesk/models"
	"CareDesk/repositories"
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openStore connects to the database named by TEST_DB_URL. The driver
// defaults to postgres; set TEST_DB_DRIVER=mysql for MySQL.
func openStore(t *testing.T) *repositories.Store {
	t.Helper()
	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = config.DriverPostgres
	}

	db, err := database.Open(context.Background(), &config.AppConfig{Env: "test", StorageDriver: driver, DBURL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return repositories.NewGormStore(db, nil)
}

func seed(t *testing.T, s *repositories.Store) (*models.Patient, *models.Doctor) {
	t.Helper()
	ctx := context.Background()

	pp := &models.Profile{ID: models.NewID(), Name: "Pat", Email: models.NewID() + "@example.com"}
	require.NoError(t, s.Profiles.Create(ctx, pp))
	p := &models.Patient{PatientID: models.NewID(), UserID: pp.ID, DOB: "1990-01-01", Gender: models.GenderFemale}
	require.NoError(t, s.Patients.Create(ctx, p))

	dp := &models.Profile{ID: models.NewID(), Name: "Doc", Email: models.NewID() + "@example.com"}
	require.NoError(t, s.Profiles.Create(ctx, dp))
	d := &models.Doctor{DoctorID: models.NewID(), UserID: dp.ID, Specialization: "Cardiology"}
	require.NoError(t, s.Doctors.Create(ctx, d))
	return p, d
}

func TestGormConstraints(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	p, d := seed(t, s)

	err := s.Patients.Create(ctx, &models.Patient{PatientID: models.NewID(), UserID: p.UserID, DOB: "1990-01-01", Gender: models.GenderMale})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate), "got %v", err)

	err = s.Appointments.Create(ctx, &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: models.NewID(),
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	})
	assert.True(t, errors.Is(err, apperrors.ErrReferenceNotFound), "got %v", err)

	a := &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: d.DoctorID,
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	}
	require.NoError(t, s.Appointments.Create(ctx, a))

	err = s.Patients.Delete(ctx, p.PatientID)
	assert.True(t, errors.Is(err, apperrors.ErrReferenceInUse), "got %v", err)

	team, err := s.Patients.CareTeam(ctx, p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, []string{d.UserID}, team)
}

func TestGormCompareAndSwap(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	p, d := seed(t, s)

	a := &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: d.DoctorID,
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	}
	require.NoError(t, s.Appointments.Create(ctx, a))
	require.NoError(t, s.Appointments.UpdateStatus(ctx, a.AppointmentID, models.AppointmentScheduled, models.AppointmentCompleted, nil))
	err := s.Appointments.UpdateStatus(ctx, a.AppointmentID, models.AppointmentScheduled, models.AppointmentCancelled, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)

	m := &models.Medicine{MedicineID: models.NewID(), Name: "Amoxicillin", Stock: 15, Price: 4.5}
	require.NoError(t, s.Medicines.Create(ctx, m, &models.StockMovement{MovementID: models.NewID(), Kind: models.MovementInitial, Delta: 15}))

	got, err := s.Medicines.AdjustStock(ctx, m.MedicineID, 15, &models.StockMovement{MovementID: models.NewID(), Kind: models.MovementDispense, Delta: -10})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	_, err = s.Medicines.AdjustStock(ctx, m.MedicineID, 15, &models.StockMovement{MovementID: models.NewID(), Kind: models.MovementDispense, Delta: -10})
	assert.True(t, errors.Is(err, apperrors.ErrConflict), "got %v", err)

	moves, err := s.Medicines.Movements(ctx, m.MedicineID, repositories.Page{})
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestGormFiltersAndRegistration(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	p, d := seed(t, s)

	a := &models.Appointment{
		AppointmentID: models.NewID(), PatientID: p.PatientID, DoctorID: d.DoctorID,
		AppointmentDate: time.Now(), Status: models.AppointmentScheduled,
	}
	require.NoError(t, s.Appointments.Create(ctx, a))
	rows, err := s.Appointments.List(ctx, repositories.AppointmentFilter{
		Involving: repositories.Involving{PatientID: models.NewID(), DoctorID: d.DoctorID},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.AppointmentID, rows[0].AppointmentID)

	prof, err := s.Profiles.GetByID(ctx, p.UserID)
	require.NoError(t, err)
	found, err := s.Patients.List(ctx, repositories.PatientFilter{Search: prof.Email})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.PatientID, found[0].PatientID)

	dup := &models.Profile{ID: models.NewID(), Name: "Dup", Email: prof.Email}
	err = s.Profiles.CreateWithCredential(ctx, dup, &models.Credential{PasswordHash: "hash"})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicate), "got %v", err)
	_, err = s.Credentials.Get(ctx, dup.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "got %v", err)
}
