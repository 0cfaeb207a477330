package order

import (
	"context"
	"log"
)

// Service is the checkout API the handlers call.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a sale exactly as the till computed it. Totals are stored
// as sent; the till applies the discount before posting.
func (s *Service) Create(ctx context.Context, in CreateOrderRequest) (*Order, error) {
	o, err := in.ToOrder()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}
	log.Printf("[pos] order %d saved with %d items total=%s", o.ID, len(o.Items), o.Total.StringFixed(2))
	return o, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete is a no-op for unknown ids.
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Printf("[pos] delete order %d: no such row", id)
	}
	return nil
}
