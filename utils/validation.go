package utils

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DateLayout is the wire format of calendar dates such as a patient's dob.
const DateLayout = "2006-01-02"

var phoneRegex = regexp.MustCompile(`^[0-9+()\-\s]*$`)

type enum interface {
	Valid() bool
}

// validEnum rejects values outside a tagged enumeration.
var validEnum = validation.By(func(value interface{}) error {
	if v, ok := value.(enum); ok && !v.Valid() {
		return errors.New("must be a valid value")
	}
	return nil
})

// invalid converts an ozzo failure into an InvalidValue error.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return apperrors.InvalidValue("%s", err.Error())
}

func ValidateProfile(p *models.Profile) error {
	return invalid(validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Email, validation.Required, is.EmailFormat),
	))
}

// ValidatePatient checks a patient row; dob may not be later than now.
func ValidatePatient(p *models.Patient, now time.Time) error {
	return invalid(validation.ValidateStruct(p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.DOB, validation.Required, validation.Date(DateLayout).Max(now).Error("must be a past date in YYYY-MM-DD format")),
		validation.Field(&p.Gender, validation.Required, validEnum),
		validation.Field(&p.Phone, validation.Length(0, 32), validation.Match(phoneRegex)),
		validation.Field(&p.Address, validation.Length(0, 255)),
		validation.Field(&p.EmergencyContact, validation.Length(0, 255)),
	))
}

func ValidateDoctor(d *models.Doctor) error {
	return invalid(validation.ValidateStruct(d,
		validation.Field(&d.UserID, validation.Required),
		validation.Field(&d.Specialization, validation.Required, validation.Length(2, 100)),
		validation.Field(&d.LicenseNumber, validation.Length(0, 50)),
		validation.Field(&d.Schedule, validation.Length(0, 255)),
	))
}

func ValidateAppointment(a *models.Appointment) error {
	return invalid(validation.ValidateStruct(a,
		validation.Field(&a.PatientID, validation.Required),
		validation.Field(&a.DoctorID, validation.Required),
		validation.Field(&a.AppointmentDate, validation.Required),
		validation.Field(&a.Status, validation.Required, validEnum),
		validation.Field(&a.Notes, validation.Length(0, 2000)),
	))
}

func ValidateMedicalRecord(r *models.MedicalRecord) error {
	return invalid(validation.ValidateStruct(r,
		validation.Field(&r.PatientID, validation.Required),
		validation.Field(&r.DoctorID, validation.Required),
		validation.Field(&r.Diagnosis, validation.Required, validation.Length(1, 4000)),
	))
}

func ValidateBill(b *models.Bill) error {
	return invalid(validation.ValidateStruct(b,
		validation.Field(&b.PatientID, validation.Required),
		validation.Field(&b.Amount, validation.Min(0.0)),
		validation.Field(&b.Status, validation.Required, validEnum),
		validation.Field(&b.Description, validation.Length(0, 2000)),
	))
}

func ValidateMedicine(m *models.Medicine) error {
	return invalid(validation.ValidateStruct(m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Stock, validation.Min(0)),
		validation.Field(&m.Price, validation.Min(0.0)),
		validation.Field(&m.Manufacturer, validation.Length(0, 200)),
	))
}

// ValidateQuantity checks a dispense or restock amount. ozzo rules other
// than Required accept the zero value, so zero is rejected by Required.
func ValidateQuantity(qty int) error {
	return invalid(validation.Validate(qty,
		validation.Required.Error("quantity must be positive"),
		validation.Min(1).Error("quantity must be positive"),
	))
}
