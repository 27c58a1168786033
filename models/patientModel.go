package models

import (
	"time"
)

// Patient model
type Patient struct {
	PatientID        string    `gorm:"primaryKey;column:patient_id;size:36" json:"patient_id"`
	UserID           string    `gorm:"column:user_id;size:36;not null;uniqueIndex" json:"user_id"`
	DOB              string    `gorm:"column:dob;size:10;not null" json:"dob"`
	Gender           Gender    `gorm:"column:gender;type:varchar(10);not null" json:"gender"`
	Phone            string    `gorm:"column:phone" json:"phone,omitempty"`
	Address          string    `gorm:"column:address" json:"address,omitempty"`
	EmergencyContact string    `gorm:"column:emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Profile          *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"profile,omitempty"`
}

func (Patient) TableName() string {
	return "patients"
}

// Doctor model
type Doctor struct {
	DoctorID       string    `gorm:"primaryKey;column:doctor_id;size:36" json:"doctor_id"`
	UserID         string    `gorm:"column:user_id;size:36;not null;uniqueIndex" json:"user_id"`
	Specialization string    `gorm:"column:specialization;not null;index" json:"specialization"`
	LicenseNumber  string    `gorm:"column:license_number" json:"license_number,omitempty"`
	Schedule       string    `gorm:"column:schedule" json:"schedule,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Profile        *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"profile,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Appointment model
type Appointment struct {
	AppointmentID   string            `gorm:"primaryKey;column:appointment_id;size:36" json:"appointment_id"`
	PatientID       string            `gorm:"column:patient_id;size:36;not null;index" json:"patient_id"`
	DoctorID        string            `gorm:"column:doctor_id;size:36;not null;index" json:"doctor_id"`
	AppointmentDate time.Time         `gorm:"column:appointment_date;not null;index" json:"appointment_date"`
	Status          AppointmentStatus `gorm:"column:status;type:varchar(20);not null;check:status IN ('scheduled', 'completed', 'cancelled', 'no-show')" json:"status"`
	Notes           string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient         *Patient          `gorm:"foreignKey:PatientID;references:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"patient,omitempty"`
	Doctor          *Doctor           `gorm:"foreignKey:DoctorID;references:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// MedicalRecord is append-only: a new visit creates a new record.
type MedicalRecord struct {
	RecordID     string     `gorm:"primaryKey;column:record_id;size:36" json:"record_id"`
	PatientID    string     `gorm:"column:patient_id;size:36;not null;index" json:"patient_id"`
	DoctorID     string     `gorm:"column:doctor_id;size:36;not null;index" json:"doctor_id"`
	Diagnosis    string     `gorm:"column:diagnosis;type:text;not null" json:"diagnosis"`
	DoctorNotes  string     `gorm:"column:doctor_notes;type:text" json:"doctor_notes,omitempty"`
	Prescription string     `gorm:"column:prescription;type:text" json:"prescription,omitempty"`
	VisitDate    *time.Time `gorm:"column:visit_date" json:"visit_date,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient      *Patient   `gorm:"foreignKey:PatientID;references:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"patient,omitempty"`
	Doctor       *Doctor    `gorm:"foreignKey:DoctorID;references:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"doctor,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}
