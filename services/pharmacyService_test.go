package services

import (
	"CareDesk/apperrors"
	"CareDesk/models"
	"CareDesk/policy"
	"CareDesk/repositories"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barrierMedicines holds every GetByID until n readers have arrived, so
// concurrent dispenses all observe the same stock.
type barrierMedicines struct {
	repositories.MedicineRepository
	arrived sync.WaitGroup
}

func (b *barrierMedicines) GetByID(ctx context.Context, id string) (*models.Medicine, error) {
	m, err := b.MedicineRepository.GetByID(ctx, id)
	b.arrived.Done()
	b.arrived.Wait()
	return m, err
}

func TestConcurrentDispense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := &models.Medicine{Name: "Amoxicillin 500mg", Stock: 15, Price: 4.5}
	require.NoError(t, f.svc.Pharmacy.Create(ctx, f.staff, m))

	barrier := &barrierMedicines{MedicineRepository: f.store.Medicines}
	barrier.arrived.Add(2)
	racing := *f.store
	racing.Medicines = barrier
	pharmacy := NewPharmacyService(&racing)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pharmacy.Dispense(ctx, f.staff, m.MedicineID, 10, "ward 3")
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch apperrors.KindOf(err) {
		case "":
			require.NoError(t, err)
			ok++
		case apperrors.KindConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got, err := f.svc.Pharmacy.Get(ctx, f.staff, m.MedicineID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	// the loser re-reads and finds too little stock for a second dispense
	_, err = f.svc.Pharmacy.Dispense(ctx, f.staff, m.MedicineID, 10, "")
	assertKind(t, err, apperrors.KindInvalidValue)
}

func TestStockOnlyMovesThroughDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := &models.Medicine{Name: "Paracetamol", Stock: 100, Price: 1.2}
	require.NoError(t, f.svc.Pharmacy.Create(ctx, f.staff, m))

	updated, err := f.svc.Pharmacy.Update(ctx, f.staff, &models.Medicine{MedicineID: m.MedicineID, Name: "Paracetamol 500mg", Stock: 0, Price: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Stock)
	assert.Equal(t, 1.5, updated.Price)

	restocked, err := f.svc.Pharmacy.Restock(ctx, f.staff, m.MedicineID, 150, "delivery")
	require.NoError(t, err)
	assert.Equal(t, 250, restocked.Stock)
	assert.Equal(t, "in-stock", restocked.StockLevel())

	_, err = f.svc.Pharmacy.Dispense(ctx, f.staff, m.MedicineID, 0, "")
	assertKind(t, err, apperrors.KindInvalidValue)
	_, err = f.svc.Pharmacy.Restock(ctx, f.staff, m.MedicineID, 0, "")
	assertKind(t, err, apperrors.KindInvalidValue)
	_, err = f.svc.Pharmacy.Restock(ctx, f.staff, m.MedicineID, -5, "")
	assertKind(t, err, apperrors.KindInvalidValue)

	_, err = f.svc.Pharmacy.Dispense(ctx, f.staff, m.MedicineID, 251, "")
	assertKind(t, err, apperrors.KindInvalidValue)

	moves, err := f.svc.Pharmacy.Movements(ctx, f.staff, m.MedicineID, repositories.Page{})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	total := 0
	for _, mv := range moves {
		total += mv.Delta
		assert.Equal(t, f.staff.ID, mv.ActorID)
	}
	assert.Equal(t, 250, total)

	err = f.svc.Pharmacy.Create(ctx, f.staff, &models.Medicine{Name: "Bad", Stock: -1})
	assertKind(t, err, apperrors.KindInvalidValue)
}

func TestPharmacyAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Pharmacy.Create(ctx, f.doctor, &models.Medicine{Name: "Aspirin", Stock: 10})
	assertDenied(t, err, policy.ReasonNoRole)

	_, err = f.svc.Pharmacy.List(ctx, f.patient, repositories.MedicineFilter{})
	assertDenied(t, err, policy.ReasonNoRole)

	_, err = f.svc.Pharmacy.Get(ctx, f.staff, "missing")
	assertKind(t, err, apperrors.KindNotFound)
}
