package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	f := NewFake(time.Unix(1_700_000_000, 0))

	var order []string
	f.AfterFunc(2*time.Minute, func() { order = append(order, "b") })
	f.AfterFunc(1*time.Minute, func() { order = append(order, "a") })
	f.AfterFunc(3*time.Minute, func() { order = append(order, "c") })

	f.Advance(2 * time.Minute)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("fired %v, want [a b]", order)
	}

	f.Advance(time.Minute)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("fired %v, want [a b c]", order)
	}
}

func TestFake_StopPreventsFiring(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	fired := false
	timer := f.AfterFunc(time.Minute, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop on pending timer should report true")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}

	f.Advance(time.Hour)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFake_CallbackMaySchedule(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	var fires int
	f.AfterFunc(time.Minute, func() {
		fires++
		f.AfterFunc(time.Minute, func() { fires++ })
	})

	// The rescheduled callback falls due within the same advance.
	f.Advance(2 * time.Minute)
	if fires != 2 {
		t.Fatalf("fires = %d, want 2", fires)
	}
}

func TestFake_NowTracksAdvance(t *testing.T) {
	start := time.Unix(100, 0)
	f := NewFake(start)

	f.Advance(90 * time.Second)
	if got := f.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("Now = %v, want %v", got, start.Add(90*time.Second))
	}
}
