package sqlite

import (
	"context"
	"fmt"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// CountForOwner gathers the aggregate totals shown on a provider's dashboard.
func (s *Store) CountForOwner(ctx context.Context, ownerID string) (persistence.DashboardCounts, error) {
	counts := persistence.DashboardCounts{ChantiersByStatus: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE owner_id = ?`, ownerID).Scan(&counts.Clients)
	if err != nil {
		return persistence.DashboardCounts{}, fmt.Errorf("sqlite: count clients: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE owner_id = ?`, ownerID).Scan(&counts.Projects)
	if err != nil {
		return persistence.DashboardCounts{}, fmt.Errorf("sqlite: count projects: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM chantiers WHERE owner_id = ? GROUP BY status`, ownerID)
	if err != nil {
		return persistence.DashboardCounts{}, fmt.Errorf("sqlite: count chantiers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			total  int
		)
		if err := rows.Scan(&status, &total); err != nil {
			return persistence.DashboardCounts{}, fmt.Errorf("sqlite: scan chantier count: %w", err)
		}
		counts.ChantiersByStatus[status] = total
	}
	return counts, rows.Err()
}
