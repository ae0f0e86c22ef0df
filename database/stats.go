package database

import (
	"context"
	"database/sql"
	"fmt"

	"civicwatch/models"
)

// StatsService computes the read-only dashboard aggregates. Everything is
// recomputed per request; there is no caching layer.
type StatsService struct {
	db *sql.DB
}

// NewStatsService creates a new stats service instance
func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

const topLocations = 5

// Overview aggregates report counts, resolution metrics, top locations and
// the trailing 7-day creation trend.
func (s *StatsService) Overview(ctx context.Context) (*models.StatsResponse, error) {
	resp := &models.StatsResponse{
		LocationStats: []models.LocationStat{},
		ReportsTrend:  []models.TrendPoint{},
	}

	if err := s.statusCounts(ctx, resp); err != nil {
		return nil, err
	}

	if resp.TotalReports > 0 {
		resp.ResolutionRate = float64(resp.ResolvedReports) / float64(resp.TotalReports) * 100
	}

	avgDays, err := s.avgResolutionDays(ctx)
	if err != nil {
		return nil, err
	}
	resp.AvgResolutionDays = avgDays

	locations, err := s.locationStats(ctx)
	if err != nil {
		return nil, err
	}
	resp.LocationStats = locations

	trend, err := s.reportsTrend(ctx)
	if err != nil {
		return nil, err
	}
	resp.ReportsTrend = trend

	return resp, nil
}

func (s *StatsService) statusCounts(ctx context.Context, resp *models.StatsResponse) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM reports GROUP BY status")
	if err != nil {
		return fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return fmt.Errorf("failed to scan status count: %w", err)
		}
		resp.TotalReports += count
		switch models.Status(status) {
		case models.StatusPending:
			resp.PendingReports = count
		case models.StatusInProgress:
			resp.InProgressReports = count
		case models.StatusResolved:
			resp.ResolvedReports = count
		case models.StatusRejected:
			resp.RejectedReports = count
		}
	}
	return rows.Err()
}

func (s *StatsService) avgResolutionDays(ctx context.Context) (float64, error) {
	var avgSeconds float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(TIMESTAMPDIFF(SECOND, created_at, updated_at)), 0)
		 FROM reports WHERE status = 'resolved'`).Scan(&avgSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to compute resolution time: %w", err)
	}
	return avgSeconds / 86400, nil
}

func (s *StatsService) locationStats(ctx context.Context) ([]models.LocationStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location,
		   COUNT(*) AS cnt,
		   SUM(IF(status = 'resolved', 1, 0)) AS resolved,
		   SUM(IF(status = 'pending', 1, 0)) AS pending
		 FROM reports
		 GROUP BY location
		 ORDER BY cnt DESC
		 LIMIT ?`, topLocations)
	if err != nil {
		return nil, fmt.Errorf("failed to query location stats: %w", err)
	}
	defer rows.Close()

	stats := []models.LocationStat{}
	for rows.Next() {
		var ls models.LocationStat
		if err := rows.Scan(&ls.Location, &ls.Count, &ls.Resolved, &ls.Pending); err != nil {
			return nil, fmt.Errorf("failed to scan location stat: %w", err)
		}
		if ls.Count > 0 {
			ls.ResolutionRate = float64(ls.Resolved) / float64(ls.Count) * 100
		}
		stats = append(stats, ls)
	}
	return stats, rows.Err()
}

func (s *StatsService) reportsTrend(ctx context.Context) ([]models.TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*) AS cnt
		 FROM reports
		 WHERE created_at >= DATE_SUB(CURDATE(), INTERVAL 7 DAY)
		 GROUP BY day
		 ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports trend: %w", err)
	}
	defer rows.Close()

	trend := []models.TrendPoint{}
	for rows.Next() {
		var tp models.TrendPoint
		if err := rows.Scan(&tp.Date, &tp.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		trend = append(trend, tp)
	}
	return trend, rows.Err()
}
