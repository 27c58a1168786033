// Package services applies the request flow shared by every write: resolve
// references, ask the policy, validate, then perform one conditional write.
// Every operation takes the acting profile explicitly.
package services

import (
	"CareDesk/apperrors"
	"CareDesk/database"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"time"

	"github.com/pkg/errors"
)

// SystemActor is used by operator commands run outside an HTTP request.
var SystemActor = policy.Actor{ID: "system", Roles: models.NewRoleSet(models.RoleAdmin)}

// Options carries the collaborators that differ between deployments.
type Options struct {
	Locker database.Locker
	// Tokens is nil when an external identity provider issues tokens.
	Tokens     *utils.PasetoIssuer
	ResetCodes *utils.ResetCodes
	Mailer     utils.Mailer
	Clock      func() time.Time
}

// Services bundles the domain services over one store.
type Services struct {
	Access       AccessService
	Identity     IdentityService
	Patients     PatientService
	Doctors      DoctorService
	Appointments AppointmentService
	Records      MedicalRecordService
	Billing      BillingService
	Pharmacy     PharmacyService
	Dashboard    DashboardService
}

func New(store *repositories.Store, opts Options) *Services {
	if opts.Locker == nil {
		opts.Locker = database.NewLocalLocker()
	}
	if opts.ResetCodes == nil {
		opts.ResetCodes = utils.NewResetCodes(nil)
	}
	if opts.Mailer == nil {
		opts.Mailer = utils.LogMailer{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	r := refs{store: store}
	return &Services{
		Access:       NewAccessService(store),
		Identity:     NewIdentityService(store, opts),
		Patients:     NewPatientService(store, r, opts.Locker, opts.Clock),
		Doctors:      NewDoctorService(store, r, opts.Locker),
		Appointments: NewAppointmentService(store, r),
		Records:      NewMedicalRecordService(store, r),
		Billing:      NewBillingService(store, r),
		Pharmacy:     NewPharmacyService(store),
		Dashboard:    NewDashboardService(store),
	}
}

// refs resolves foreign references and builds policy resources.
type refs struct {
	store *repositories.Store
}

// asReference reclassifies a missing referenced row.
func asReference(err error, what, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ReferenceNotFound("%s %s does not exist", what, id)
	}
	return err
}

func (r refs) profile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := r.store.Profiles.GetByID(ctx, id)
	if err != nil {
		return nil, asReference(err, "profile", id)
	}
	return p, nil
}

func (r refs) patient(ctx context.Context, id string) (*models.Patient, error) {
	p, err := r.store.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, asReference(err, "patient", id)
	}
	return p, nil
}

func (r refs) doctor(ctx context.Context, id string) (*models.Doctor, error) {
	d, err := r.store.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, asReference(err, "doctor", id)
	}
	return d, nil
}

// patientResource describes a patient row. The care team is only looked up
// for actors holding the doctor role, the only rule that reads it.
func (r refs) patientResource(ctx context.Context, actor policy.Actor, p *models.Patient) (policy.Resource, error) {
	res := policy.Resource{Kind: policy.KindPatients, OwnerID: p.UserID}
	if actor.Roles.Has(models.RoleDoctor) {
		team, err := r.store.Patients.CareTeam(ctx, p.PatientID)
		if err != nil {
			return res, err
		}
		res.CareTeam = team
	}
	return res, nil
}

// clinicalOwners returns the profile ids behind a patient and doctor pair,
// loading whichever relation was not preloaded.
func (r refs) clinicalOwners(ctx context.Context, patientID, doctorID string, p *models.Patient, d *models.Doctor) (string, string, error) {
	var err error
	if p == nil {
		if p, err = r.patient(ctx, patientID); err != nil {
			return "", "", err
		}
	}
	if d == nil {
		if d, err = r.doctor(ctx, doctorID); err != nil {
			return "", "", err
		}
	}
	return p.UserID, d.UserID, nil
}

func (r refs) appointmentResource(ctx context.Context, a *models.Appointment) (policy.Resource, error) {
	owner, doctor, err := r.clinicalOwners(ctx, a.PatientID, a.DoctorID, a.Patient, a.Doctor)
	if err != nil {
		return policy.Resource{}, err
	}
	return policy.Resource{Kind: policy.KindAppointments, OwnerID: owner, DoctorID: doctor, Status: string(a.Status)}, nil
}

func (r refs) recordResource(ctx context.Context, rec *models.MedicalRecord) (policy.Resource, error) {
	owner, doctor, err := r.clinicalOwners(ctx, rec.PatientID, rec.DoctorID, rec.Patient, rec.Doctor)
	if err != nil {
		return policy.Resource{}, err
	}
	return policy.Resource{Kind: policy.KindMedicalRecords, OwnerID: owner, DoctorID: doctor}, nil
}

func (r refs) billResource(ctx context.Context, b *models.Bill) (policy.Resource, error) {
	p := b.Patient
	if p == nil {
		var err error
		if p, err = r.patient(ctx, b.PatientID); err != nil {
			return policy.Resource{}, err
		}
	}
	return policy.Resource{Kind: policy.KindBilling, OwnerID: p.UserID}, nil
}

// scope narrows a clinical list query to the rows an unprivileged actor can
// see. When both ids are set the actor sees rows matching either.
type scope struct {
	patientID string
	doctorID  string
}

// restrict applies the scope to a list filter's patient and doctor fields.
// It reports false when the request lies outside the scope.
func (sc scope) restrict(patientID, doctorID *string, involving *repositories.Involving) bool {
	if sc.patientID != "" && sc.doctorID != "" {
		*involving = repositories.Involving{PatientID: sc.patientID, DoctorID: sc.doctorID}
		return true
	}
	var ok bool
	if *patientID, ok = narrow(*patientID, sc.patientID); !ok {
		return false
	}
	*doctorID, ok = narrow(*doctorID, sc.doctorID)
	return ok
}

func privileged(actor policy.Actor) bool {
	return actor.Roles.Has(models.RoleAdmin) || actor.Roles.Has(models.RoleStaff)
}

// clinicalScope picks the narrowing filter for an actor without admin or
// staff. The bool is false when the actor can see nothing at all.
func (r refs) clinicalScope(ctx context.Context, actor policy.Actor) (scope, bool, error) {
	if privileged(actor) {
		return scope{}, true, nil
	}
	var sc scope
	if actor.Roles.Has(models.RoleDoctor) {
		d, err := r.store.Doctors.GetByUserID(ctx, actor.ID)
		switch {
		case err == nil:
			sc.doctorID = d.DoctorID
		case !errors.Is(err, apperrors.ErrNotFound):
			return scope{}, false, err
		}
	}
	if actor.Roles.Has(models.RolePatient) {
		p, err := r.store.Patients.GetByUserID(ctx, actor.ID)
		switch {
		case err == nil:
			sc.patientID = p.PatientID
		case !errors.Is(err, apperrors.ErrNotFound):
			return scope{}, false, err
		}
	}
	return sc, sc.patientID != "" || sc.doctorID != "", nil
}

// narrow applies a scope to a requested filter value. A request outside the
// scope yields an empty result rather than widening it.
func narrow(requested, scoped string) (string, bool) {
	if scoped == "" {
		return requested, true
	}
	if requested != "" && requested != scoped {
		return "", false
	}
	return scoped, true
}

// visible keeps the rows the actor may read.
func visible[T any](ctx context.Context, actor policy.Actor, rows []T, describe func(context.Context, *T) (policy.Resource, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i := range rows {
		res, err := describe(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		d, err := policy.Authorize(actor, policy.ActionRead, res)
		if err != nil {
			return nil, err
		}
		if d.Permitted {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// nothingVisible answers a list request that no scope matched. Holders of
// one of the reader roles without a row of their own get an empty list,
// everyone else is denied.
func nothingVisible[T any](actor policy.Actor, kind policy.Kind, readers ...models.Role) ([]T, error) {
	for _, r := range readers {
		if actor.Roles.Has(r) {
			return []T{}, nil
		}
	}
	return nil, policy.Decision{Reason: policy.ReasonNoRole}.Err(policy.ActionRead, kind)
}
