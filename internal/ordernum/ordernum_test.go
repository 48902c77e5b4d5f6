package ordernum

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{8}-\d{3}$`)
	now := time.Now()
	for i := 0; i < 50; i++ {
		got := Generate(now)
		if !pattern.MatchString(got) {
			t.Fatalf("Generate() = %q, want ORD-XXXXXXXX-XXX", got)
		}
	}
}

func TestGenerateTimeComponent(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	got := Generate(now)
	if got[:12] != "ORD-45678901" {
		t.Fatalf("Generate() = %q, want time prefix ORD-45678901", got)
	}
}

func TestBackoffGrowsLinearly(t *testing.T) {
	if Backoff(1) != 100*time.Millisecond {
		t.Fatalf("Backoff(1) = %v", Backoff(1))
	}
	if Backoff(3) != 300*time.Millisecond {
		t.Fatalf("Backoff(3) = %v", Backoff(3))
	}
	if Backoff(0) != 100*time.Millisecond {
		t.Fatalf("Backoff(0) = %v", Backoff(0))
	}
}
