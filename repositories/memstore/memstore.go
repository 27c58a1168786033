// Package memstore is an in-memory storage backend. It enforces the same
// foreign key, uniqueness and compare-and-swap rules as the SQL schema, with
// one mutex serialising all writes.
package memstore

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/repositories"
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type state struct {
	profiles     map[string]models.Profile
	credentials  map[string]models.Credential
	roles        map[string]models.RoleAssignment
	patients     map[string]models.Patient
	doctors      map[string]models.Doctor
	appointments map[string]models.Appointment
	records      map[string]models.MedicalRecord
	bills        map[string]models.Bill
	medicines    map[string]models.Medicine
	movements    map[string]models.StockMovement
}

func newState() state {
	return state{
		profiles:     map[string]models.Profile{},
		credentials:  map[string]models.Credential{},
		roles:        map[string]models.RoleAssignment{},
		patients:     map[string]models.Patient{},
		doctors:      map[string]models.Doctor{},
		appointments: map[string]models.Appointment{},
		records:      map[string]models.MedicalRecord{},
		bills:        map[string]models.Bill{},
		medicines:    map[string]models.Medicine{},
		movements:    map[string]models.StockMovement{},
	}
}

// DB holds every table of the memory backend.
type DB struct {
	mu    sync.RWMutex
	state state
	now   func() time.Time
}

func NewDB() *DB {
	return &DB{state: newState(), now: time.Now}
}

// New returns a Store backed by a fresh DB.
func New() *repositories.Store {
	return NewDB().Store()
}

// Store exposes the DB through the repository interfaces.
func (db *DB) Store() *repositories.Store {
	return &repositories.Store{
		Profiles:       profiles{db},
		Credentials:    credentials{db},
		Roles:          roles{db},
		Patients:       patients{db},
		Doctors:        doctors{db},
		Appointments:   appointments{db},
		MedicalRecords: records{db},
		Bills:          bills{db},
		Medicines:      medicines{db},
	}
}

// SetClock replaces the clock used for created_at stamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func page[T any](rows []T, p repositories.Page) []T {
	p = p.Normalize()
	if p.Offset >= len(rows) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[p.Offset:end]
}

func newestFirst[T any](rows []T, created func(T) time.Time, id func(T) string) {
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := created(rows[i]), created(rows[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(rows[i]) > id(rows[j])
	})
}

// Profiles

type profiles struct{ db *DB }

func (r profiles) Create(_ context.Context, p *models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insert(p)
}

func (r profiles) CreateWithCredential(_ context.Context, p *models.Profile, c *models.Credential) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.insert(p); err != nil {
		return err
	}
	c.UserID = p.ID
	c.UpdatedAt = r.db.now()
	stored := *c
	stored.Profile = nil
	r.db.state.credentials[p.ID] = stored
	return nil
}

// insert requires the write lock.
func (r profiles) insert(p *models.Profile) error {
	s := &r.db.state
	if _, ok := s.profiles[p.ID]; ok {
		return apperrors.Duplicate("profile already exists")
	}
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return apperrors.Duplicate("profile already exists")
		}
	}
	p.CreatedAt = r.db.now()
	s.profiles[p.ID] = *p
	return nil
}

func (r profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.state.profiles[id]
	if !ok {
		return nil, apperrors.NotFound("profile %s not found", id)
	}
	return &p, nil
}

func (r profiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.state.profiles {
		if strings.EqualFold(p.Email, email) {
			p := p
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("profile %s not found", email)
}

func (r profiles) List(_ context.Context, pg repositories.Page) ([]models.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]models.Profile, 0, len(r.db.state.profiles))
	for _, p := range r.db.state.profiles {
		out = append(out, p)
	}
	newestFirst(out, func(p models.Profile) time.Time { return p.CreatedAt }, func(p models.Profile) string { return p.ID })
	return page(out, pg), nil
}

func (r profiles) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.profiles[id]; !ok {
		return apperrors.NotFound("profile %s not found", id)
	}
	for _, p := range s.patients {
		if p.UserID == id {
			return apperrors.ReferenceInUse("profile %s is referenced by a patient or doctor", id)
		}
	}
	for _, d := range s.doctors {
		if d.UserID == id {
			return apperrors.ReferenceInUse("profile %s is referenced by a patient or doctor", id)
		}
	}
	for rid, ra := range s.roles {
		if ra.UserID == id {
			delete(s.roles, rid)
		}
	}
	delete(s.credentials, id)
	delete(s.profiles, id)
	return nil
}

// Credentials

type credentials struct{ db *DB }

func (r credentials) Save(_ context.Context, c *models.Credential) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.state.profiles[c.UserID]; !ok {
		return apperrors.ReferenceNotFound("credential references a missing row")
	}
	c.UpdatedAt = r.db.now()
	stored := *c
	stored.Profile = nil
	r.db.state.credentials[c.UserID] = stored
	return nil
}

func (r credentials) Get(_ context.Context, userID string) (*models.Credential, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.state.credentials[userID]
	if !ok {
		return nil, apperrors.NotFound("credential %s not found", userID)
	}
	return &c, nil
}

// Roles

type roles struct{ db *DB }

func (r roles) Assign(_ context.Context, ra *models.RoleAssignment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.profiles[ra.UserID]; !ok {
		return apperrors.ReferenceNotFound("role assignment references a missing row")
	}
	for _, existing := range s.roles {
		if existing.ID == ra.ID || (existing.UserID == ra.UserID && existing.Role == ra.Role) {
			return apperrors.Duplicate("role assignment already exists")
		}
	}
	ra.CreatedAt = r.db.now()
	stored := *ra
	stored.Profile = nil
	s.roles[ra.ID] = stored
	return nil
}

func (r roles) GetByID(_ context.Context, id string) (*models.RoleAssignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ra, ok := r.db.state.roles[id]
	if !ok {
		return nil, apperrors.NotFound("role assignment %s not found", id)
	}
	return &ra, nil
}

func (r roles) Revoke(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.state.roles[id]; !ok {
		return apperrors.NotFound("role assignment %s not found", id)
	}
	delete(r.db.state.roles, id)
	return nil
}

func (r roles) ListByUser(_ context.Context, userID string) ([]models.RoleAssignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.RoleAssignment{}
	for _, ra := range r.db.state.roles {
		if ra.UserID == userID {
			out = append(out, ra)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Patients

type patients struct{ db *DB }

// patientView attaches the profile row. Callers hold the lock.
func (db *DB) patientView(p models.Patient) models.Patient {
	if prof, ok := db.state.profiles[p.UserID]; ok {
		p.Profile = &prof
	}
	return p
}

func (db *DB) doctorView(d models.Doctor) models.Doctor {
	if prof, ok := db.state.profiles[d.UserID]; ok {
		d.Profile = &prof
	}
	return d
}

func (r patients) Create(_ context.Context, p *models.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.profiles[p.UserID]; !ok {
		return apperrors.ReferenceNotFound("patient references a missing row")
	}
	for _, existing := range s.patients {
		if existing.PatientID == p.PatientID || existing.UserID == p.UserID {
			return apperrors.Duplicate("patient already exists")
		}
	}
	p.CreatedAt = r.db.now()
	stored := *p
	stored.Profile = nil
	s.patients[p.PatientID] = stored
	return nil
}

func (r patients) GetByID(_ context.Context, id string) (*models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.state.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient %s not found", id)
	}
	p = r.db.patientView(p)
	return &p, nil
}

func (r patients) GetByUserID(_ context.Context, userID string) (*models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.state.patients {
		if p.UserID == userID {
			p = r.db.patientView(p)
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("patient for profile %s not found", userID)
}

func (r patients) List(_ context.Context, f repositories.PatientFilter) ([]models.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var allowed map[string]bool
	if f.IDs != nil {
		allowed = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			allowed[id] = true
		}
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := []models.Patient{}
	for _, p := range r.db.state.patients {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if allowed != nil && !allowed[p.PatientID] {
			continue
		}
		view := r.db.patientView(p)
		if needle != "" && (view.Profile == nil ||
			!strings.Contains(strings.ToLower(view.Profile.Name), needle) &&
				!strings.Contains(strings.ToLower(view.Profile.Email), needle)) {
			continue
		}
		out = append(out, view)
	}
	newestFirst(out, func(p models.Patient) time.Time { return p.CreatedAt }, func(p models.Patient) string { return p.PatientID })
	return page(out, f.Page), nil
}

func (r patients) Update(_ context.Context, p *models.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.state.patients[p.PatientID]
	if !ok {
		return apperrors.NotFound("patient %s not found", p.PatientID)
	}
	cur.DOB = p.DOB
	cur.Gender = p.Gender
	cur.Phone = p.Phone
	cur.Address = p.Address
	cur.EmergencyContact = p.EmergencyContact
	r.db.state.patients[p.PatientID] = cur
	return nil
}

func (r patients) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.patients[id]; !ok {
		return apperrors.NotFound("patient %s not found", id)
	}
	for _, a := range s.appointments {
		if a.PatientID == id {
			return apperrors.ReferenceInUse("patient is still referenced")
		}
	}
	for _, rec := range s.records {
		if rec.PatientID == id {
			return apperrors.ReferenceInUse("patient is still referenced")
		}
	}
	for _, b := range s.bills {
		if b.PatientID == id {
			return apperrors.ReferenceInUse("patient is still referenced")
		}
	}
	delete(s.patients, id)
	return nil
}

func (r patients) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.state.patients)), nil
}

func (r patients) CareTeam(_ context.Context, patientID string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &r.db.state
	doctorIDs := map[string]bool{}
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			doctorIDs[a.DoctorID] = true
		}
	}
	for _, rec := range s.records {
		if rec.PatientID == patientID {
			doctorIDs[rec.DoctorID] = true
		}
	}
	seen := map[string]bool{}
	out := []string{}
	for id := range doctorIDs {
		if d, ok := s.doctors[id]; ok && !seen[d.UserID] {
			seen[d.UserID] = true
			out = append(out, d.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r patients) AttendedBy(_ context.Context, doctorID string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s := &r.db.state
	seen := map[string]bool{}
	out := []string{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, a := range s.appointments {
		if a.DoctorID == doctorID {
			add(a.PatientID)
		}
	}
	for _, rec := range s.records {
		if rec.DoctorID == doctorID {
			add(rec.PatientID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Doctors

type doctors struct{ db *DB }

func (r doctors) Create(_ context.Context, d *models.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.profiles[d.UserID]; !ok {
		return apperrors.ReferenceNotFound("doctor references a missing row")
	}
	for _, existing := range s.doctors {
		if existing.DoctorID == d.DoctorID || existing.UserID == d.UserID {
			return apperrors.Duplicate("doctor already exists")
		}
	}
	d.CreatedAt = r.db.now()
	stored := *d
	stored.Profile = nil
	s.doctors[d.DoctorID] = stored
	return nil
}

func (r doctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	d, ok := r.db.state.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor %s not found", id)
	}
	d = r.db.doctorView(d)
	return &d, nil
}

func (r doctors) GetByUserID(_ context.Context, userID string) (*models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, d := range r.db.state.doctors {
		if d.UserID == userID {
			d = r.db.doctorView(d)
			return &d, nil
		}
	}
	return nil, apperrors.NotFound("doctor for profile %s not found", userID)
}

func (r doctors) List(_ context.Context, f repositories.DoctorFilter) ([]models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Doctor{}
	for _, d := range r.db.state.doctors {
		if f.Specialization != "" && d.Specialization != f.Specialization {
			continue
		}
		out = append(out, r.db.doctorView(d))
	}
	newestFirst(out, func(d models.Doctor) time.Time { return d.CreatedAt }, func(d models.Doctor) string { return d.DoctorID })
	return page(out, f.Page), nil
}

func (r doctors) Update(_ context.Context, d *models.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.state.doctors[d.DoctorID]
	if !ok {
		return apperrors.NotFound("doctor %s not found", d.DoctorID)
	}
	cur.Specialization = d.Specialization
	cur.LicenseNumber = d.LicenseNumber
	cur.Schedule = d.Schedule
	r.db.state.doctors[d.DoctorID] = cur
	return nil
}

func (r doctors) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.doctors[id]; !ok {
		return apperrors.NotFound("doctor %s not found", id)
	}
	for _, a := range s.appointments {
		if a.DoctorID == id {
			return apperrors.ReferenceInUse("doctor is still referenced")
		}
	}
	for _, rec := range s.records {
		if rec.DoctorID == id {
			return apperrors.ReferenceInUse("doctor is still referenced")
		}
	}
	delete(s.doctors, id)
	return nil
}

func (r doctors) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.state.doctors)), nil
}

// Appointments

type appointments struct{ db *DB }

func (db *DB) appointmentView(a models.Appointment) models.Appointment {
	if p, ok := db.state.patients[a.PatientID]; ok {
		a.Patient = &p
	}
	if d, ok := db.state.doctors[a.DoctorID]; ok {
		a.Doctor = &d
	}
	return a
}

func (r appointments) Create(_ context.Context, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.patients[a.PatientID]; !ok {
		return apperrors.ReferenceNotFound("appointment references a missing row")
	}
	if _, ok := s.doctors[a.DoctorID]; !ok {
		return apperrors.ReferenceNotFound("appointment references a missing row")
	}
	if _, ok := s.appointments[a.AppointmentID]; ok {
		return apperrors.Duplicate("appointment already exists")
	}
	a.CreatedAt = r.db.now()
	stored := *a
	stored.Patient, stored.Doctor = nil, nil
	s.appointments[a.AppointmentID] = stored
	return nil
}

func (r appointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.state.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment %s not found", id)
	}
	a = r.db.appointmentView(a)
	return &a, nil
}

func matchAppointment(a models.Appointment, f repositories.AppointmentFilter) bool {
	switch {
	case !f.Involving.Matches(a.PatientID, a.DoctorID):
		return false
	case f.PatientID != "" && a.PatientID != f.PatientID:
		return false
	case f.DoctorID != "" && a.DoctorID != f.DoctorID:
		return false
	case f.Status != "" && a.Status != f.Status:
		return false
	case f.From != nil && a.AppointmentDate.Before(*f.From):
		return false
	case f.To != nil && !a.AppointmentDate.Before(*f.To):
		return false
	}
	return true
}

func (r appointments) List(_ context.Context, f repositories.AppointmentFilter) ([]models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Appointment{}
	for _, a := range r.db.state.appointments {
		if matchAppointment(a, f) {
			out = append(out, r.db.appointmentView(a))
		}
	}
	newestFirst(out, func(a models.Appointment) time.Time { return a.AppointmentDate }, func(a models.Appointment) string { return a.AppointmentID })
	return page(out, f.Page), nil
}

func (r appointments) Count(_ context.Context, f repositories.AppointmentFilter) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, a := range r.db.state.appointments {
		if matchAppointment(a, f) {
			n++
		}
	}
	return n, nil
}

func (r appointments) UpdateStatus(_ context.Context, id string, from, to models.AppointmentStatus, notes *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.state.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment %s not found", id)
	}
	if a.Status != from {
		return apperrors.Conflict("appointment %s was modified concurrently", id)
	}
	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	r.db.state.appointments[id] = a
	return nil
}

// Medical records

type records struct{ db *DB }

func (r records) Create(_ context.Context, rec *models.MedicalRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.patients[rec.PatientID]; !ok {
		return apperrors.ReferenceNotFound("medical record references a missing row")
	}
	if _, ok := s.doctors[rec.DoctorID]; !ok {
		return apperrors.ReferenceNotFound("medical record references a missing row")
	}
	if _, ok := s.records[rec.RecordID]; ok {
		return apperrors.Duplicate("medical record already exists")
	}
	rec.CreatedAt = r.db.now()
	stored := *rec
	stored.Patient, stored.Doctor = nil, nil
	s.records[rec.RecordID] = stored
	return nil
}

func (db *DB) recordView(rec models.MedicalRecord) models.MedicalRecord {
	if p, ok := db.state.patients[rec.PatientID]; ok {
		rec.Patient = &p
	}
	if d, ok := db.state.doctors[rec.DoctorID]; ok {
		rec.Doctor = &d
	}
	return rec
}

func (r records) GetByID(_ context.Context, id string) (*models.MedicalRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rec, ok := r.db.state.records[id]
	if !ok {
		return nil, apperrors.NotFound("medical record %s not found", id)
	}
	rec = r.db.recordView(rec)
	return &rec, nil
}

func (r records) List(_ context.Context, f repositories.MedicalRecordFilter) ([]models.MedicalRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.MedicalRecord{}
	for _, rec := range r.db.state.records {
		if !f.Involving.Matches(rec.PatientID, rec.DoctorID) {
			continue
		}
		if f.PatientID != "" && rec.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != "" && rec.DoctorID != f.DoctorID {
			continue
		}
		out = append(out, r.db.recordView(rec))
	}
	newestFirst(out, func(rec models.MedicalRecord) time.Time { return rec.CreatedAt }, func(rec models.MedicalRecord) string { return rec.RecordID })
	return page(out, f.Page), nil
}

// Bills

type bills struct{ db *DB }

func (db *DB) billView(b models.Bill) models.Bill {
	if p, ok := db.state.patients[b.PatientID]; ok {
		b.Patient = &p
	}
	return b
}

func (r bills) Create(_ context.Context, b *models.Bill) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.patients[b.PatientID]; !ok {
		return apperrors.ReferenceNotFound("bill references a missing row")
	}
	if _, ok := s.bills[b.BillID]; ok {
		return apperrors.Duplicate("bill already exists")
	}
	b.CreatedAt = r.db.now()
	stored := *b
	stored.Patient = nil
	s.bills[b.BillID] = stored
	return nil
}

func (r bills) GetByID(_ context.Context, id string) (*models.Bill, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	b, ok := r.db.state.bills[id]
	if !ok {
		return nil, apperrors.NotFound("bill %s not found", id)
	}
	b = r.db.billView(b)
	return &b, nil
}

func matchBill(b models.Bill, f repositories.BillFilter) bool {
	switch {
	case f.PatientID != "" && b.PatientID != f.PatientID:
		return false
	case f.Status != "" && b.Status != f.Status:
		return false
	case f.DueBefore != nil && (b.DueDate == nil || !b.DueDate.Before(*f.DueBefore)):
		return false
	case f.CreatedFrom != nil && b.CreatedAt.Before(*f.CreatedFrom):
		return false
	case f.CreatedTo != nil && !b.CreatedAt.Before(*f.CreatedTo):
		return false
	}
	return true
}

func (r bills) List(_ context.Context, f repositories.BillFilter) ([]models.Bill, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Bill{}
	for _, b := range r.db.state.bills {
		if matchBill(b, f) {
			out = append(out, r.db.billView(b))
		}
	}
	newestFirst(out, func(b models.Bill) time.Time { return b.CreatedAt }, func(b models.Bill) string { return b.BillID })
	return page(out, f.Page), nil
}

func (r bills) UpdateStatus(_ context.Context, id string, from, to models.BillStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.state.bills[id]
	if !ok {
		return apperrors.NotFound("bill %s not found", id)
	}
	if b.Status != from {
		return apperrors.Conflict("bill %s was modified concurrently", id)
	}
	b.Status = to
	r.db.state.bills[id] = b
	return nil
}

func (r bills) Summary(_ context.Context, f repositories.BillFilter) (models.BillingSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var s models.BillingSummary
	for _, b := range r.db.state.bills {
		if matchBill(b, f) {
			s.Add(b.Status, b.Amount)
		}
	}
	return s, nil
}

// Pharmacy

type medicines struct{ db *DB }

func (r medicines) Create(_ context.Context, m *models.Medicine, initial *models.StockMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	if _, ok := s.medicines[m.MedicineID]; ok {
		return apperrors.Duplicate("medicine already exists")
	}
	if m.Stock < 0 {
		return apperrors.InvalidValue("medicine stock cannot be negative")
	}
	now := r.db.now()
	m.CreatedAt = now
	s.medicines[m.MedicineID] = *m
	if initial != nil {
		initial.MedicineID = m.MedicineID
		initial.ResultingStock = m.Stock
		initial.CreatedAt = now
		s.movements[initial.MovementID] = *initial
	}
	return nil
}

func (r medicines) GetByID(_ context.Context, id string) (*models.Medicine, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.state.medicines[id]
	if !ok {
		return nil, apperrors.NotFound("medicine %s not found", id)
	}
	return &m, nil
}

func (r medicines) List(_ context.Context, f repositories.MedicineFilter) ([]models.Medicine, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	needle := strings.ToLower(f.Name)
	out := []models.Medicine{}
	for _, m := range r.db.state.medicines {
		if needle != "" && !strings.Contains(strings.ToLower(m.Name), needle) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MedicineID < out[j].MedicineID
	})
	return page(out, f.Page), nil
}

func (r medicines) Update(_ context.Context, m *models.Medicine) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.state.medicines[m.MedicineID]
	if !ok {
		return apperrors.NotFound("medicine %s not found", m.MedicineID)
	}
	cur.Name = m.Name
	cur.Price = m.Price
	cur.Manufacturer = m.Manufacturer
	cur.Description = m.Description
	r.db.state.medicines[m.MedicineID] = cur
	return nil
}

func (r medicines) AdjustStock(_ context.Context, id string, expected int, mv *models.StockMovement) (*models.Medicine, error) {
	next := expected + mv.Delta
	if next < 0 {
		return nil, apperrors.InvalidValue("stock of medicine %s cannot go below zero", id)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &r.db.state
	m, ok := s.medicines[id]
	if !ok {
		return nil, apperrors.NotFound("medicine %s not found", id)
	}
	if m.Stock != expected {
		return nil, apperrors.Conflict("medicine %s was modified concurrently", id)
	}
	m.Stock = next
	s.medicines[id] = m

	mv.MedicineID = id
	mv.ResultingStock = next
	mv.CreatedAt = r.db.now()
	stored := *mv
	stored.Medicine = nil
	s.movements[mv.MovementID] = stored
	return &m, nil
}

func (r medicines) Movements(_ context.Context, medicineID string, pg repositories.Page) ([]models.StockMovement, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.StockMovement{}
	for _, mv := range r.db.state.movements {
		if mv.MedicineID == medicineID {
			out = append(out, mv)
		}
	}
	newestFirst(out, func(mv models.StockMovement) time.Time { return mv.CreatedAt }, func(mv models.StockMovement) string { return mv.MovementID })
	return page(out, pg), nil
}
