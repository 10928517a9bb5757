package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/kinvo"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/model"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/repository"
)

// PortfolioService keeps the local list of Kinvo portfolios in step with Kinvo.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	client        kinvo.Client
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository, client kinvo.Client) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		client:        client,
	}
}

// GetPortfolios returns the known portfolios. The list is pulled from Kinvo
// when refresh is set or when no portfolio is known yet; an explicit refresh
// bypasses the response cache.
func (s *PortfolioService) GetPortfolios(ctx context.Context, refresh bool) ([]model.Portfolio, error) {
	if refresh {
		return s.RefreshPortfolios(kinvo.WithoutCache(ctx))
	}
	portfolios, err := s.portfolioRepo.GetPortfolios(ctx)
	if err != nil || len(portfolios) > 0 {
		return portfolios, err
	}
	return s.RefreshPortfolios(ctx)
}

// GetPortfolio returns one portfolio, consulting Kinvo when it is not known locally.
// Returns apperrors.ErrPortfolioNotFound if Kinvo does not know it either.
func (s *PortfolioService) GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	p, err := s.portfolioRepo.GetPortfolio(ctx, portfolioID)
	if !errors.Is(err, apperrors.ErrPortfolioNotFound) {
		return p, err
	}

	if _, err := s.RefreshPortfolios(ctx); err != nil {
		return model.Portfolio{}, err
	}
	return s.portfolioRepo.GetPortfolio(ctx, portfolioID)
}

// RefreshPortfolios pulls the portfolio list from Kinvo and stores it.
func (s *PortfolioService) RefreshPortfolios(ctx context.Context) ([]model.Portfolio, error) {
	items, err := s.client.Portfolios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kinvo portfolios: %w", err)
	}

	portfolios := make([]model.Portfolio, len(items))
	for i, item := range items {
		portfolios[i] = model.Portfolio{ID: item.ID, Name: item.Title}
	}
	if err := s.portfolioRepo.UpsertPortfolios(ctx, portfolios); err != nil {
		return nil, err
	}

	return s.portfolioRepo.GetPortfolios(ctx)
}
