// Package analytics fetches manager reporting data from the backend
// and computes presentational aggregates. Nothing here is cached:
// every fetch goes to the network.
package analytics

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
)

// CompletionRate summarizes task completion over a period. The rate is
// the backend's fraction in [0, 1].
type CompletionRate struct {
	TimePeriod     string   `json:"time_period"`
	TotalTasks     int      `json:"total_tasks"`
	CompletedTasks int      `json:"completed_tasks"`
	CompletionRate float64  `json:"completion_rate"`
	StartDate      api.Time `json:"start_date"`
	EndDate        api.Time `json:"end_date"`
}

// Productivity summarizes one user's task throughput.
type Productivity struct {
	UserID                int64   `json:"user_id"`
	TotalTasks            int     `json:"total_tasks"`
	CompletedTasks        int     `json:"completed_tasks"`
	PendingTasks          int     `json:"pending_tasks"`
	InProgressTasks       int     `json:"in_progress_tasks"`
	AverageCompletionTime float64 `json:"average_completion_time"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PriorityCount is one slice of the priority distribution.
type PriorityCount struct {
	Priority   string  `json:"priority"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Service issues analytics fetches. Role gating happens at the route
// layer; the backend enforces it too.
type Service struct {
	api    *api.Client
	logger *zap.SugaredLogger
}

func NewService(client *api.Client, logger *zap.SugaredLogger) *Service {
	return &Service{api: client, logger: logger}
}

// CompletionRate fetches the completion-rate summary. period is one of
// week, month, or year; userID 0 means the whole team.
func (s *Service) CompletionRate(ctx context.Context, userID int64, period string) (*CompletionRate, error) {
	if period == "" {
		period = "month"
	}
	q := url.Values{"period": {period}}
	if userID != 0 {
		q.Set("user_id", strconv.FormatInt(userID, 10))
	}
	var out CompletionRate
	if err := s.api.Get(ctx, "/api/analytics/task-completion", q, &out); err != nil {
		return nil, fmt.Errorf("task completion rate: %w", err)
	}
	return &out, nil
}

// Productivity fetches the productivity summary for one user, or the
// caller's own when userID is 0.
func (s *Service) Productivity(ctx context.Context, userID int64) (*Productivity, error) {
	var q url.Values
	if userID != 0 {
		q = url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	}
	var out Productivity
	if err := s.api.Get(ctx, "/api/analytics/user-productivity", q, &out); err != nil {
		return nil, fmt.Errorf("user productivity: %w", err)
	}
	return &out, nil
}

// StatusDistribution fetches the task count per status.
func (s *Service) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	if err := s.api.Get(ctx, "/api/analytics/task-status-distribution", nil, &out); err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	return out, nil
}

// PriorityDistribution fetches the task count per priority.
func (s *Service) PriorityDistribution(ctx context.Context) ([]PriorityCount, error) {
	var out []PriorityCount
	if err := s.api.Get(ctx, "/api/analytics/task-priority-distribution", nil, &out); err != nil {
		return nil, fmt.Errorf("priority distribution: %w", err)
	}
	return out, nil
}

// CompletionPercent converts completed/total into a rounded whole
// percentage, 0 when there is nothing to complete.
func CompletionPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
