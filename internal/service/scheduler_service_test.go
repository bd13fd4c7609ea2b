package service

import (
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"00:00", "0 0 0 * * *", false},
		{"07:45", "0 45 7 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"24:00", "", true},
		{"7:45", "", true},
	}
	for _, tt := range tests {
		got, err := buildDailySpec(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("buildDailySpec(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	t.Parallel()
	s := NewSchedulerService(time.UTC)

	if _, err := s.ScheduleDaily("00:00", func() {}); err != nil {
		t.Fatalf("ScheduleDaily failed: %v", err)
	}
	if _, err := s.ScheduleInterval(time.Minute, func() {}); err != nil {
		t.Fatalf("ScheduleInterval failed: %v", err)
	}
	if _, err := s.ScheduleInterval(0, func() {}); err == nil {
		t.Errorf("Expected non-positive interval to be rejected")
	}
	if _, err := s.ScheduleDaily("bad", func() {}); err == nil {
		t.Errorf("Expected malformed time to be rejected")
	}
	if got := s.Jobs(); got != 2 {
		t.Errorf("Expected 2 jobs, got %d", got)
	}

	s.Start()
	s.Stop()
}
