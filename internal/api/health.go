package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/nerrad567/meterlink/internal/status"
)

// componentCheckTimeout bounds each component check made by the health route.
const componentCheckTimeout = 2 * time.Second

// Health status values.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthResponse is the body of the health routes.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Components    map[string]string `json:"components,omitempty"`
}

// StatusResponse is the body of the status route.
type StatusResponse struct {
	Timestamp     string             `json:"timestamp"`
	Version       string             `json:"version"`
	Site          string             `json:"site,omitempty"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	Jobs          []status.JobStatus `json:"jobs"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// handleHealth reports liveness. The process is up whenever this answers, so
// the code is always 200; a failing component only marks the body degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        healthOK,
		Version:       s.version,
		UptimeSeconds: int64(s.tracker.Uptime().Seconds()),
	}

	if len(s.components) > 0 {
		resp.Components = make(map[string]string, len(s.components))
		for _, name := range s.componentNames() {
			ctx, cancel := context.WithTimeout(r.Context(), componentCheckTimeout)
			err := s.components[name].HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Status = healthDegraded
				resp.Components[name] = err.Error()
				continue
			}
			resp.Components[name] = healthOK
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStatus returns per-job collection state and runtime statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, StatusResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		Site:          s.siteID,
		UptimeSeconds: int64(s.tracker.Uptime().Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Jobs: s.tracker.Jobs(),
	})
}

func (s *Server) componentNames() []string {
	names := make([]string, 0, len(s.components))
	for name := range s.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
