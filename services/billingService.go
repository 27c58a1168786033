package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OverdueReport summarises one status-evaluation pass.
type OverdueReport struct {
	Evaluated int `json:"evaluated"`
	Updated   int `json:"updated"`
	// Conflicts counts bills that changed between the scan and the update.
	Conflicts int `json:"conflicts"`
}

type BillingService interface {
	// Create issues a bill. An empty status defaults to pending.
	Create(ctx context.Context, actor policy.Actor, b *models.Bill) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Bill, error)
	List(ctx context.Context, actor policy.Actor, f repositories.BillFilter) ([]models.Bill, error)
	Transition(ctx context.Context, actor policy.Actor, id string, to models.BillStatus) (*models.Bill, error)
	// EvaluateOverdue moves every pending bill whose due date is before now
	// to overdue. Paid bills never move.
	EvaluateOverdue(ctx context.Context, actor policy.Actor, now time.Time) (*OverdueReport, error)
	Summary(ctx context.Context, actor policy.Actor, f repositories.BillFilter) (models.BillingSummary, error)
}

type billingService struct {
	store *repositories.Store
	refs  refs
}

func NewBillingService(store *repositories.Store, r refs) BillingService {
	return &billingService{store: store, refs: r}
}

func (s *billingService) Create(ctx context.Context, actor policy.Actor, b *models.Bill) error {
	if b.Status == "" {
		b.Status = models.BillPending
	}
	patient, err := s.refs.patient(ctx, b.PatientID)
	if err != nil {
		return err
	}
	if err := policy.Check(actor, policy.ActionCreate, policy.Resource{Kind: policy.KindBilling, OwnerID: patient.UserID}); err != nil {
		return err
	}
	if err := utils.ValidateBill(b); err != nil {
		return err
	}

	b.BillID = models.NewID()
	b.Patient = nil
	if err := s.store.Bills.Create(ctx, b); err != nil {
		return err
	}
	b.Patient = patient
	return nil
}

func (s *billingService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Bill, error) {
	b, err := s.store.Bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.billResource(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionRead, res); err != nil {
		return nil, err
	}
	return b, nil
}

// billingScope narrows a bill query; only patients see a subset.
func (s *billingService) billingScope(ctx context.Context, actor policy.Actor, patientID string) (string, bool, error) {
	if privileged(actor) {
		return patientID, true, nil
	}
	if !actor.Roles.Has(models.RolePatient) {
		return "", false, policy.Decision{Reason: policy.ReasonNoRole}.Err(policy.ActionRead, policy.KindBilling)
	}
	own, err := s.store.Patients.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	narrowed, ok := narrow(patientID, own.PatientID)
	return narrowed, ok, nil
}

func (s *billingService) List(ctx context.Context, actor policy.Actor, f repositories.BillFilter) ([]models.Bill, error) {
	patientID, ok, err := s.billingScope(ctx, actor, f.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Bill{}, nil
	}
	f.PatientID = patientID

	rows, err := s.store.Bills.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return visible(ctx, actor, rows, s.refs.billResource)
}

func (s *billingService) Transition(ctx context.Context, actor policy.Actor, id string, to models.BillStatus) (*models.Bill, error) {
	b, err := s.store.Bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.refs.billResource(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, policy.ActionWrite, res); err != nil {
		return nil, err
	}
	if err := models.CheckBillTransition(b.Status, to); err != nil {
		return nil, err
	}
	if err := s.store.Bills.UpdateStatus(ctx, id, b.Status, to); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}

func (s *billingService) EvaluateOverdue(ctx context.Context, actor policy.Actor, now time.Time) (*OverdueReport, error) {
	if err := policy.Check(actor, policy.ActionWrite, policy.Resource{Kind: policy.KindBilling}); err != nil {
		return nil, err
	}

	// Collect first: updating while paging would shift the offsets.
	var due []models.Bill
	page := repositories.Page{Limit: repositories.MaxLimit}
	for {
		rows, err := s.store.Bills.List(ctx, repositories.BillFilter{Status: models.BillPending, DueBefore: &now, Page: page})
		if err != nil {
			return nil, err
		}
		due = append(due, rows...)
		if len(rows) < page.Limit {
			break
		}
		page.Offset += page.Limit
	}

	report := &OverdueReport{}
	for _, b := range due {
		if !b.PastDue(now) {
			continue
		}
		report.Evaluated++
		err := s.store.Bills.UpdateStatus(ctx, b.BillID, models.BillPending, models.BillOverdue)
		switch {
		case err == nil:
			report.Updated++
		case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrNotFound):
			report.Conflicts++
		default:
			return report, err
		}
	}

	log.Info().
		Int("evaluated", report.Evaluated).
		Int("updated", report.Updated).
		Int("conflicts", report.Conflicts).
		Msg("overdue evaluation finished")
	return report, nil
}

func (s *billingService) Summary(ctx context.Context, actor policy.Actor, f repositories.BillFilter) (models.BillingSummary, error) {
	patientID, ok, err := s.billingScope(ctx, actor, f.PatientID)
	if err != nil {
		return models.BillingSummary{}, err
	}
	if !ok {
		return models.BillingSummary{}, nil
	}
	f.PatientID = patientID
	return s.store.Bills.Summary(ctx, f)
}
