package netutil

import (
	"context"
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Backend  Engineer \n", "Backend Engineer"},
		{"", ""},
		{"\t\n", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Berlin, Berlin,  Germany", "Berlin, Germany"},
		{" Remote ", "Remote"},
		{",,", ""},
	}
	for _, tt := range tests {
		if got := NormalizeLocation(tt.in); got != tt.want {
			t.Errorf("NormalizeLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHostLimiterPacesPerHost(t *testing.T) {
	hl := NewHostLimiter(20, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := hl.WaitURL(ctx, "https://www.linkedin.com/jobs/view/1"); err != nil {
			t.Fatal(err)
		}
	}
	// first request is free, the next two wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("expected pacing, took %v", elapsed)
	}

	// a different host has its own budget
	start = time.Now()
	if err := hl.WaitURL(ctx, "https://example.com/"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Fatalf("other host should not wait, took %v", elapsed)
	}
}

func TestHostLimiterCanceled(t *testing.T) {
	hl := NewHostLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := hl.WaitURL(ctx, "https://a.test/"); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := hl.WaitURL(ctx, "https://a.test/"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestNilLimiter(t *testing.T) {
	var hl *HostLimiter
	if err := hl.WaitURL(context.Background(), "https://a.test/"); err != nil {
		t.Fatal(err)
	}
}
