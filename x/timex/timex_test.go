package timex

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDeadline(t *testing.T) {
	var zero Deadline
	if zero.Expired() {
		t.Fatal("zero deadline expired")
	}
	if zero.Remaining() != -1 {
		t.Fatalf("zero Remaining = %v", zero.Remaining())
	}
	if After(0).Expired() {
		t.Fatal("After(0) should never expire")
	}

	d := After(10 * time.Millisecond)
	if d.Expired() {
		t.Fatal("fresh deadline expired")
	}
	time.Sleep(20 * time.Millisecond)
	if !d.Expired() {
		t.Fatal("deadline did not expire")
	}
	if d.Remaining() != 0 {
		t.Fatalf("Remaining after expiry = %v", d.Remaining())
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep err = %v, want context.Canceled", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("Sleep ignored cancellation")
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep = %v", err)
	}
}
