package service

import (
	"context"

	"github.com/smallbiznis/oilfield/internal/tank/domain"
)

// ConnectedTanks lists every tank sharing at least one well with the tank
// directly, the tank itself included. Wells shared only through an
// intermediate tank do not count. A tank without wells has no connections.
func (s *Service) ConnectedTanks(ctx context.Context, tankID string) ([]domain.TankResponse, error) {
	id, err := s.parseID(tankID)
	if err != nil {
		return nil, err
	}
	tank, err := s.store.FindTank(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tank == nil {
		return nil, domain.ErrNotFound
	}

	wellIDs, err := s.store.WellsOf(ctx, s.db, tank.ID)
	if err != nil {
		return nil, err
	}
	if len(wellIDs) == 0 {
		return []domain.TankResponse{}, nil
	}

	tanks, err := s.store.TanksWithAnyWell(ctx, s.db, wellIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TankResponse, 0, len(tanks))
	for _, t := range tanks {
		out = append(out, s.toResponse(t))
	}
	return out, nil
}
