package selector

import "testing"

func TestNext_VisitsAllInOrder(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	const n = 3
	for cycle := 0; cycle < 10; cycle++ {
		got, ok := rr.Next(n)
		if !ok {
			t.Fatal("expected selection")
		}
		if got != cycle%n {
			t.Fatalf("cycle %d: got=%d", cycle, got)
		}
	}
}

func TestNext_EmptyListSelectsNothing(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	for i := 0; i < 5; i++ {
		if _, ok := rr.Next(0); ok {
			t.Fatal("unexpected selection")
		}
	}
	if rr.Cursor() != -1 {
		t.Fatalf("cursor=%d", rr.Cursor())
	}
	if got, _ := rr.Next(2); got != 0 {
		t.Fatalf("first after empty=%d", got)
	}
}

func TestNext_ShrinkUsesNewLength(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	rr.Next(4)
	rr.Next(4)
	rr.Next(4) // cursor 2
	if got, _ := rr.Next(2); got != 1 {
		t.Fatalf("got=%d", got)
	}
	if got, _ := rr.Next(2); got != 0 {
		t.Fatalf("got=%d", got)
	}
	if got, _ := rr.Next(5); got != 1 {
		t.Fatalf("grow got=%d", got)
	}
}
