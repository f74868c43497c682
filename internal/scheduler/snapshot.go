package scheduler

import (
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// ServiceStatus is a point-in-time view of one service.
type ServiceStatus struct {
	Name      string         `json:"name"`
	Mode      string         `json:"mode"`
	State     string         `json:"state"`
	Interval  time.Duration  `json:"interval"`
	HasRun    bool           `json:"has_run"`
	LastRun   *time.Time     `json:"last_run,omitempty"`
	NextDueIn *time.Duration `json:"next_due_in,omitempty"`
}

// Snapshot describes every service at the current clock time. It is safe to
// call from other goroutines while the scheduler runs.
func (s *Scheduler) Snapshot() []ServiceStatus {
	now := s.clock.Now()
	services := s.snapshotServices()
	out := make([]ServiceStatus, 0, len(services))
	for _, svc := range services {
		st := ServiceStatus{
			Name:     svc.Name(),
			Mode:     string(svc.Mode()),
			State:    string(svc.StateAt(now)),
			Interval: svc.Interval(),
			HasRun:   svc.HasRun(),
		}
		if st.HasRun {
			last := svc.LastRun()
			st.LastRun = &last
		}
		if svc.Mode() == service.RunModeRecurring {
			if due := s.readyIn(svc, now, map[string]bool{}); due.IsSome() {
				d := due.Unwrap()
				st.NextDueIn = &d
			}
		}
		out = append(out, st)
	}
	return out
}
