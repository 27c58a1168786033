// Package repositories is the storage collaborator: per-entity interfaces,
// the gorm implementation and shared filter types. Every conditional write
// is a compare-and-swap on the stored value; a precondition that no longer
// holds is reported as apperrors.Conflict.
package repositories

import (
	"CareDesk/models"
	"context"
	"time"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page into the allowed range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type PatientFilter struct {
	UserID string
	// Search matches a substring of the patient's profile name or email.
	Search string
	// IDs restricts the result to these patients when non-nil.
	IDs []string
	Page
}

type DoctorFilter struct {
	Specialization string
	Page
}

// Involving matches rows whose patient is PatientID or whose doctor is
// DoctorID. The zero value matches every row.
type Involving struct {
	PatientID string
	DoctorID  string
}

func (i Involving) IsZero() bool {
	return i.PatientID == "" && i.DoctorID == ""
}

// Matches reports whether a row with these parties is involved.
func (i Involving) Matches(patientID, doctorID string) bool {
	if i.IsZero() {
		return true
	}
	return (i.PatientID != "" && patientID == i.PatientID) ||
		(i.DoctorID != "" && doctorID == i.DoctorID)
}

type AppointmentFilter struct {
	PatientID string
	DoctorID  string
	Involving Involving
	Status    models.AppointmentStatus
	From      *time.Time
	To        *time.Time
	Page
}

type MedicalRecordFilter struct {
	PatientID string
	DoctorID  string
	Involving Involving
	Page
}

type BillFilter struct {
	PatientID   string
	Status      models.BillStatus
	DueBefore   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page
}

type MedicineFilter struct {
	Name string
	Page
}

type ProfileRepository interface {
	Create(ctx context.Context, p *models.Profile) error
	// CreateWithCredential inserts a profile and its password credential
	// together; neither is stored if either write fails.
	CreateWithCredential(ctx context.Context, p *models.Profile, c *models.Credential) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context, page Page) ([]models.Profile, error)
	// Delete removes the profile with its credential and role assignments.
	// It refuses while a Patient or Doctor references the profile.
	Delete(ctx context.Context, id string) error
}

type CredentialRepository interface {
	Save(ctx context.Context, c *models.Credential) error
	Get(ctx context.Context, userID string) (*models.Credential, error)
}

type RoleRepository interface {
	Assign(ctx context.Context, ra *models.RoleAssignment) error
	GetByID(ctx context.Context, id string) (*models.RoleAssignment, error)
	Revoke(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.RoleAssignment, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByUserID(ctx context.Context, userID string) (*models.Patient, error)
	List(ctx context.Context, f PatientFilter) ([]models.Patient, error)
	// Update writes the mutable demographic fields only.
	Update(ctx context.Context, p *models.Patient) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// CareTeam returns the profile ids of doctors with an appointment or a
	// record for the patient.
	CareTeam(ctx context.Context, patientID string) ([]string, error)
	// AttendedBy returns the ids of patients attended by the doctor.
	AttendedBy(ctx context.Context, doctorID string) ([]string, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	List(ctx context.Context, f DoctorFilter) ([]models.Doctor, error)
	Update(ctx context.Context, d *models.Doctor) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	Count(ctx context.Context, f AppointmentFilter) (int64, error)
	// UpdateStatus sets status to `to` only if it is still `from`. Notes are
	// replaced when non-nil.
	UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus, notes *string) error
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, r *models.MedicalRecord) error
	GetByID(ctx context.Context, id string) (*models.MedicalRecord, error)
	List(ctx context.Context, f MedicalRecordFilter) ([]models.MedicalRecord, error)
}

type BillRepository interface {
	Create(ctx context.Context, b *models.Bill) error
	GetByID(ctx context.Context, id string) (*models.Bill, error)
	List(ctx context.Context, f BillFilter) ([]models.Bill, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BillStatus) error
	Summary(ctx context.Context, f BillFilter) (models.BillingSummary, error)
}

type MedicineRepository interface {
	// Create inserts the medicine and its initial stock movement together.
	Create(ctx context.Context, m *models.Medicine, initial *models.StockMovement) error
	GetByID(ctx context.Context, id string) (*models.Medicine, error)
	List(ctx context.Context, f MedicineFilter) ([]models.Medicine, error)
	// Update writes name, price, manufacturer and description. Stock is
	// never touched here.
	Update(ctx context.Context, m *models.Medicine) error
	// AdjustStock moves stock from expected to expected+mv.Delta and records
	// the movement in the same transaction.
	AdjustStock(ctx context.Context, id string, expected int, mv *models.StockMovement) (*models.Medicine, error)
	Movements(ctx context.Context, medicineID string, page Page) ([]models.StockMovement, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Profiles       ProfileRepository
	Credentials    CredentialRepository
	Roles          RoleRepository
	Patients       PatientRepository
	Doctors        DoctorRepository
	Appointments   AppointmentRepository
	MedicalRecords MedicalRecordRepository
	Bills          BillRepository
	Medicines      MedicineRepository
}
