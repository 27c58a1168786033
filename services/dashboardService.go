package services

import (
	"CareDesk/policy"
	"CareDesk/repositories"
	"context"
	"time"
)

// DashboardStats are the headline numbers of the admin dashboard.
type DashboardStats struct {
	Patients          int64   `json:"total_patients"`
	Doctors           int64   `json:"total_doctors"`
	AppointmentsToday int64   `json:"appointments_today"`
	RevenueThisMonth  float64 `json:"revenue_this_month"`
}

type DashboardService interface {
	Stats(ctx context.Context, actor policy.Actor, now time.Time) (*DashboardStats, error)
}

type dashboardService struct {
	store *repositories.Store
}

func NewDashboardService(store *repositories.Store) DashboardService {
	return &dashboardService{store: store}
}

// Stats needs read access to billing since it reports revenue.
func (s *dashboardService) Stats(ctx context.Context, actor policy.Actor, now time.Time) (*DashboardStats, error) {
	if err := policy.Check(actor, policy.ActionRead, policy.Resource{Kind: policy.KindBilling}); err != nil {
		return nil, err
	}

	stats := &DashboardStats{}
	var err error
	if stats.Patients, err = s.store.Patients.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Doctors, err = s.store.Doctors.Count(ctx); err != nil {
		return nil, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	if stats.AppointmentsToday, err = s.store.Appointments.Count(ctx, repositories.AppointmentFilter{From: &dayStart, To: &dayEnd}); err != nil {
		return nil, err
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	summary, err := s.store.Bills.Summary(ctx, repositories.BillFilter{CreatedFrom: &monthStart, CreatedTo: &monthEnd})
	if err != nil {
		return nil, err
	}
	stats.RevenueThisMonth = summary.Paid
	return stats, nil
}
