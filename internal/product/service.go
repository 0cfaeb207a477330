package product

import (
	"context"
	"log"
)

// Service is the catalog's request-level API.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateProductRequest) (*Product, error) {
	p, err := in.ToProduct(0)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces every field of product id with the payload.
func (s *Service) Update(ctx context.Context, id int64, in CreateProductRequest) (*Product, error) {
	p, err := in.ToProduct(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete is a no-op for unknown ids.
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		log.Printf("[catalog] delete product %d: no such row", id)
	}
	return nil
}
