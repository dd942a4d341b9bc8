package operator

import (
	"context"
	"net/url"
	"strings"

	"minishop-gateway/internal/domain"
	"minishop-gateway/internal/navigation"
)

// BranchStats returns the dashboard figures for a branch. The "store"
// dashboard id asks for the whole shop.
func (s *Service) BranchStats(ctx context.Context, branchID string) (domain.BranchStats, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		branchID = navigation.AllBranches
	}
	var body struct {
		Stats *domain.BranchStats `json:"stats"`
		domain.BranchStats
	}
	if err := s.fetch(ctx, "/operator/stats/branch/"+url.PathEscape(branchID), nil, "Не удалось загрузить статистику", &body); err != nil {
		return domain.BranchStats{}, err
	}
	if body.Stats != nil {
		return *body.Stats, nil
	}
	return body.BranchStats, nil
}
