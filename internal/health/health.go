// Package health probes the stores the service depends on.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

// Check is a named probe. Run returns nil when the dependency is reachable.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Report struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == "ok"
}

// Database pings the relational store.
func Database(db *gorm.DB) Check {
	return Check{
		Name: "database",
		Run: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("failed to get database handle: %v", err)
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("failed to ping database: %v", err)
			}
			return nil
		},
	}
}

// Pinger is implemented by optional backends such as the activity mirror.
type Pinger interface {
	Ping(ctx context.Context) error
}

func FromPinger(name string, p Pinger) Check {
	return Check{Name: name, Run: p.Ping}
}

// Run executes checks concurrently, each bounded by a timeout.
func Run(ctx context.Context, checks []Check) Report {
	report := Report{
		Status:    "ok",
		Checks:    make(map[string]string, len(checks)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
			defer cancel()

			result := "ok"
			if err := c.Run(checkCtx); err != nil {
				result = err.Error()
			}

			mu.Lock()
			report.Checks[c.Name] = result
			if result != "ok" {
				report.Status = "degraded"
			}
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return report
}
