package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"CareDesk/utils"
	"context"
	"strings"
)

var pharmacy = policy.Resource{Kind: policy.KindPharmacy}

type PharmacyService interface {
	// Create adds a medicine and records its opening stock as a movement.
	Create(ctx context.Context, actor policy.Actor, m *models.Medicine) error
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Medicine, error)
	List(ctx context.Context, actor policy.Actor, f repositories.MedicineFilter) ([]models.Medicine, error)
	// Update changes the descriptive fields. Stock is ignored.
	Update(ctx context.Context, actor policy.Actor, m *models.Medicine) (*models.Medicine, error)
	Dispense(ctx context.Context, actor policy.Actor, id string, qty int, reason string) (*models.Medicine, error)
	Restock(ctx context.Context, actor policy.Actor, id string, qty int, reason string) (*models.Medicine, error)
	Movements(ctx context.Context, actor policy.Actor, id string, page repositories.Page) ([]models.StockMovement, error)
}

type pharmacyService struct {
	store *repositories.Store
}

func NewPharmacyService(store *repositories.Store) PharmacyService {
	return &pharmacyService{store: store}
}

func (s *pharmacyService) Create(ctx context.Context, actor policy.Actor, m *models.Medicine) error {
	if err := policy.Check(actor, policy.ActionCreate, pharmacy); err != nil {
		return err
	}
	m.Name = strings.TrimSpace(m.Name)
	if err := utils.ValidateMedicine(m); err != nil {
		return err
	}
	m.MedicineID = models.NewID()
	initial := &models.StockMovement{
		MovementID: models.NewID(),
		Kind:       models.MovementInitial,
		Delta:      m.Stock,
		ActorID:    actor.ID,
	}
	return s.store.Medicines.Create(ctx, m, initial)
}

func (s *pharmacyService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Medicine, error) {
	if err := policy.Check(actor, policy.ActionRead, pharmacy); err != nil {
		return nil, err
	}
	return s.store.Medicines.GetByID(ctx, id)
}

func (s *pharmacyService) List(ctx context.Context, actor policy.Actor, f repositories.MedicineFilter) ([]models.Medicine, error) {
	if err := policy.Check(actor, policy.ActionRead, pharmacy); err != nil {
		return nil, err
	}
	return s.store.Medicines.List(ctx, f)
}

func (s *pharmacyService) Update(ctx context.Context, actor policy.Actor, m *models.Medicine) (*models.Medicine, error) {
	if err := policy.Check(actor, policy.ActionWrite, pharmacy); err != nil {
		return nil, err
	}
	current, err := s.store.Medicines.GetByID(ctx, m.MedicineID)
	if err != nil {
		return nil, err
	}
	next := *current
	next.Name = strings.TrimSpace(m.Name)
	next.Price = m.Price
	next.Manufacturer = m.Manufacturer
	next.Description = m.Description
	if err := utils.ValidateMedicine(&next); err != nil {
		return nil, err
	}
	if err := s.store.Medicines.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Dispense removes qty from stock. A dispense that loses a race returns a
// conflict; the caller re-reads before retrying.
func (s *pharmacyService) Dispense(ctx context.Context, actor policy.Actor, id string, qty int, reason string) (*models.Medicine, error) {
	return s.adjust(ctx, actor, id, qty, -qty, models.MovementDispense, reason)
}

func (s *pharmacyService) Restock(ctx context.Context, actor policy.Actor, id string, qty int, reason string) (*models.Medicine, error) {
	return s.adjust(ctx, actor, id, qty, qty, models.MovementRestock, reason)
}

func (s *pharmacyService) adjust(ctx context.Context, actor policy.Actor, id string, qty, delta int, kind models.MovementKind, reason string) (*models.Medicine, error) {
	if err := policy.Check(actor, policy.ActionWrite, pharmacy); err != nil {
		return nil, err
	}
	if err := utils.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	current, err := s.store.Medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Stock+delta < 0 {
		return nil, apperrors.InvalidValue("cannot dispense %d of %s: only %d in stock", qty, current.Name, current.Stock)
	}
	mv := &models.StockMovement{
		MovementID: models.NewID(),
		Kind:       kind,
		Delta:      delta,
		ActorID:    actor.ID,
		Reason:     strings.TrimSpace(reason),
	}
	return s.store.Medicines.AdjustStock(ctx, id, current.Stock, mv)
}

func (s *pharmacyService) Movements(ctx context.Context, actor policy.Actor, id string, page repositories.Page) ([]models.StockMovement, error) {
	if err := policy.Check(actor, policy.ActionRead, pharmacy); err != nil {
		return nil, err
	}
	if _, err := s.store.Medicines.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Medicines.Movements(ctx, id, page)
}
