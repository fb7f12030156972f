package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tenantx/database"
	"tenantx/models"
)

type stubSettings struct {
	units      map[uuid.UUID]*models.Unit
	properties map[uuid.UUID]*models.Property
	landlords  map[uuid.UUID]*models.Landlord

	unitErr     error
	propertyErr error
	landlordErr error
}

func newStubSettings() *stubSettings {
	return &stubSettings{
		units:      map[uuid.UUID]*models.Unit{},
		properties: map[uuid.UUID]*models.Property{},
		landlords:  map[uuid.UUID]*models.Landlord{},
	}
}

func (s *stubSettings) GetUnit(_ context.Context, id uuid.UUID) (*models.Unit, error) {
	if s.unitErr != nil {
		return nil, s.unitErr
	}
	if u, ok := s.units[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (s *stubSettings) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	if s.propertyErr != nil {
		return nil, s.propertyErr
	}
	if p, ok := s.properties[id]; ok {
		return p, nil
	}
	return nil, database.ErrNotFound
}

func (s *stubSettings) GetLandlord(_ context.Context, id uuid.UUID) (*models.Landlord, error) {
	if s.landlordErr != nil {
		return nil, s.landlordErr
	}
	if l, ok := s.landlords[id]; ok {
		return l, nil
	}
	return nil, database.ErrNotFound
}

// stubPayments хранит платежи в памяти и повторяет условное обновление хранилища
type stubPayments struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.Payment
	order    []uuid.UUID

	findErr  error
	markErrs map[uuid.UUID]error
	marked   []uuid.UUID
}

func newStubPayments(payments ...*models.Payment) *stubPayments {
	s := &stubPayments{
		payments: map[uuid.UUID]*models.Payment{},
		markErrs: map[uuid.UUID]error{},
	}
	for _, p := range payments {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		s.payments[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s
}

func (s *stubPayments) FindRentPaymentsPendingDefault(_ context.Context) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.Payment
	for _, id := range s.order {
		if p := s.payments[id]; p.EligibleForDefault() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubPayments) MarkPaymentDefaulted(_ context.Context, id uuid.UUID, fields models.DefaultFields) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErrs[id]; err != nil {
		return nil, err
	}
	p, ok := s.payments[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if p.IsDefaulted {
		return nil, database.ErrAlreadyDefaulted
	}
	p.ApplyDefault(fields)
	s.marked = append(s.marked, id)
	out := *p
	return &out, nil
}

func (s *stubPayments) GetPayment(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, database.ErrNotFound
}
