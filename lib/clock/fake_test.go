// Copyright 2026 The Tidewire Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)

	ch := fake.After(5 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before Advance")
	default:
	}

	fake.Advance(5 * time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(testEpoch.Add(5 * time.Second)) {
			t.Errorf("fire time = %v, want %v", fired, testEpoch.Add(5*time.Second))
		}
	default:
		t.Fatal("timer did not fire after Advance")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTickerReschedules(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		fake.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("tick %d not delivered", i)
		}
	}
}

func TestFakeTickerStop(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)
	ticker := fake.NewTicker(time.Second)
	ticker.Stop()

	fake.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
	if got := fake.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d after Stop, want 0", got)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)

	done := make(chan struct{})
	go func() {
		fake.Sleep(time.Minute)
		close(done)
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeAdvancePartial(t *testing.T) {
	t.Parallel()
	fake := Fake(testEpoch)
	ch := fake.After(10 * time.Second)

	fake.Advance(9 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(time.Second)
	select {
	case <-ch:
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}
