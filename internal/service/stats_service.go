package service

import (
	"context"

	"biro-server/internal/clock"
	"biro-server/internal/repository"
)

type StatsService interface {
	GetStats(ctx context.Context) (*repository.Stats, error)
}

type statsService struct {
	stats repository.StatsRepository
	clock clock.Clock
}

func NewStatsService(stats repository.StatsRepository, clk clock.Clock) StatsService {
	return &statsService{stats: stats, clock: clk}
}

func (s *statsService) GetStats(ctx context.Context) (*repository.Stats, error) {
	return s.stats.GetStats(ctx, s.clock.Now())
}
