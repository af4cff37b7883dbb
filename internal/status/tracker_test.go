package status

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	tr.Register("power", 5*time.Minute)
	tr.Register("gas", 5*time.Minute)

	jobs := tr.Jobs()
	if len(jobs) != 2 || jobs[0].Name != "gas" || jobs[1].Name != "power" {
		t.Fatalf("Jobs() = %+v, want gas and power sorted", jobs)
	}
	if jobs[1].PeriodSeconds != 300 || jobs[1].Runs != 0 || jobs[1].LastStarted != nil {
		t.Errorf("registered job = %+v", jobs[1])
	}

	started := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	tr.RecordsCollected("power", 42)
	tr.JobFinished("power", started, 1500*time.Millisecond, nil)

	tr.JobFinished("power", started.Add(5*time.Minute), time.Second, errors.New("delivery failed"))

	p := tr.Jobs()[1]
	if p.Runs != 2 || p.Failures != 1 {
		t.Errorf("runs/failures = %d/%d, want 2/1", p.Runs, p.Failures)
	}
	if p.LastError != "delivery failed" {
		t.Errorf("LastError = %q", p.LastError)
	}
	// The failed run reported no records.
	if p.LastRecords != 0 {
		t.Errorf("LastRecords = %d, want 0", p.LastRecords)
	}
	if p.LastStarted == nil || !p.LastStarted.Equal(started.Add(5*time.Minute)) {
		t.Errorf("LastStarted = %v", p.LastStarted)
	}
	if p.LastDuration != 1 {
		t.Errorf("LastDuration = %v, want 1", p.LastDuration)
	}
}

func TestTrackerRecordsAttachedToRun(t *testing.T) {
	tr := NewTracker()
	tr.RecordsCollected("udp", 7)
	tr.JobFinished("udp", time.Now(), time.Millisecond, nil)

	j := tr.Jobs()[0]
	if j.LastRecords != 7 || j.LastError != "" {
		t.Errorf("job = %+v, want 7 records and no error", j)
	}
}

func TestTrackerErrorClearedOnSuccess(t *testing.T) {
	tr := NewTracker()
	tr.JobFinished("heat", time.Now(), 0, errors.New("boom"))
	tr.JobFinished("heat", time.Now(), 0, nil)

	if j := tr.Jobs()[0]; j.LastError != "" || j.Failures != 1 {
		t.Errorf("job = %+v, want cleared error and one failure", j)
	}
}

func TestTrackerJobsIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.JobFinished("gas", time.Unix(0, 0), 0, nil)

	jobs := tr.Jobs()
	jobs[0].Runs = 99
	*jobs[0].LastStarted = time.Unix(1, 0)

	again := tr.Jobs()[0]
	if again.Runs != 1 || !again.LastStarted.Equal(time.Unix(0, 0)) {
		t.Errorf("tracker state mutated through Jobs(): %+v", again)
	}
}

func TestTrackerUptime(t *testing.T) {
	tr := NewTracker()
	base := tr.started
	tr.now = func() time.Time { return base.Add(90 * time.Second) }

	if got := tr.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime() = %v, want 90s", got)
	}
}

func TestJobStatusJSON(t *testing.T) {
	data, err := json.Marshal(JobStatus{Name: "power", PeriodSeconds: 300})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, "last_started") || strings.Contains(s, "last_error") {
		t.Errorf("unset optional fields serialised: %s", s)
	}
	if !strings.Contains(s, `"period_seconds":300`) {
		t.Errorf("missing period: %s", s)
	}
}
