// Package category learns which expense category a user files recurring
// descriptions under and suggests it back when they type a similar one.
package category

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	FindCategory(ctx context.Context, ownerID uuid.UUID, description string) (string, error)
	SaveMapping(ctx context.Context, ownerID uuid.UUID, pattern, category string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the best known category for the description, or empty if
// nothing matches.
func (s *Service) Suggest(ctx context.Context, ownerID uuid.UUID, description string) (string, error) {
	return s.repo.FindCategory(ctx, ownerID, description)
}

// Learn remembers that descriptions matching pattern belong to category.
func (s *Service) Learn(ctx context.Context, ownerID uuid.UUID, pattern, category string) error {
	if pattern == "" || category == "" {
		return nil
	}

	return s.repo.SaveMapping(ctx, ownerID, pattern, category)
}
