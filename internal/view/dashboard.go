// Package view holds the presentational view models: they subscribe to
// the session and cache streams, derive display aggregates, and tear
// their subscriptions down deterministically on Close. They never talk
// to the network except through the services they wrap.
package view

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/analytics"
	"github.com/taskflow/client-core-go/internal/session"
	"github.com/taskflow/client-core-go/internal/task"
	"github.com/taskflow/client-core-go/pkg/observe"
)

// recentLimit caps the recently-updated list on the dashboard.
const recentLimit = 5

// Stats is the dashboard's derived aggregate over the task snapshot.
type Stats struct {
	TotalTasks      int
	CompletedTasks  int
	PendingTasks    int
	InProgressTasks int
	// CompletionRate is a whole percentage.
	CompletionRate int
	Overdue        []task.Task
	Recent         []task.Task
}

// Dashboard mirrors the task stream and the session into display
// state. Managers additionally get backend analytics on Refresh.
type Dashboard struct {
	session   *session.Manager
	tasks     *task.Service
	analytics *analytics.Service
	logger    *zap.SugaredLogger
	now       func() time.Time

	bag observe.Bag

	mu           sync.Mutex
	user         *session.User
	stats        Stats
	completion   *analytics.CompletionRate
	productivity *analytics.Productivity
}

// NewDashboard subscribes to the session and task streams. The replay
// on subscribe seeds the aggregates from the current snapshots.
func NewDashboard(sess *session.Manager, tasks *task.Service, ana *analytics.Service, logger *zap.SugaredLogger) *Dashboard {
	d := &Dashboard{
		session:   sess,
		tasks:     tasks,
		analytics: ana,
		logger:    logger,
		now:       time.Now,
	}
	d.bag.Add(sess.CurrentUser().Subscribe(func(u *session.User) {
		d.mu.Lock()
		d.user = u
		d.mu.Unlock()
	}))
	d.bag.Add(tasks.Tasks().Subscribe(d.recompute))
	return d
}

// Refresh reloads the task collection and, for managers, the analytics
// summaries. The task stream subscription recomputes the aggregates.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if _, err := d.tasks.List(ctx, task.Filters{}); err != nil {
		return err
	}
	if !d.session.IsManager() {
		return nil
	}
	completion, err := d.analytics.CompletionRate(ctx, 0, "")
	if err != nil {
		return err
	}
	productivity, err := d.analytics.Productivity(ctx, 0)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.completion = completion
	d.productivity = productivity
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) recompute(tasks []task.Task) {
	stats := Stats{TotalTasks: len(tasks)}
	now := d.now()
	for _, t := range tasks {
		switch t.Status {
		case task.StatusCompleted:
			stats.CompletedTasks++
		case task.StatusPending:
			stats.PendingTasks++
		case task.StatusInProgress:
			stats.InProgressTasks++
		}
		if t.DueDate != nil && !t.DueDate.IsZero() &&
			t.DueDate.Time.Before(now) && t.Status != task.StatusCompleted {
			stats.Overdue = append(stats.Overdue, t)
		}
	}
	stats.CompletionRate = analytics.CompletionPercent(stats.CompletedTasks, stats.TotalTasks)

	recent := make([]task.Task, len(tasks))
	copy(recent, tasks)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.Time.After(recent[j].UpdatedAt.Time)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	stats.Recent = recent

	d.mu.Lock()
	d.stats = stats
	d.mu.Unlock()
}

// Stats returns the current aggregate snapshot.
func (d *Dashboard) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// User returns the session user the dashboard last observed.
func (d *Dashboard) User() *session.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.user
}

// Completion returns the manager analytics summary from the last
// Refresh, nil for non-managers.
func (d *Dashboard) Completion() *analytics.CompletionRate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completion
}

// Productivity returns the manager productivity summary from the last
// Refresh, nil for non-managers.
func (d *Dashboard) Productivity() *analytics.Productivity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.productivity
}

// Close severs all stream subscriptions. After Close no further
// emissions reach this dashboard, even while the streams keep emitting
// to other subscribers.
func (d *Dashboard) Close() {
	d.bag.Close()
}
