package parsekit

import "testing"

func TestOutcomeParsed(t *testing.T) {
	o := Parsed(42, 5)
	value, size, ok := o.IsParsed()
	if !ok {
		t.Fatal("expected Parsed outcome")
	}
	if value != 42 {
		t.Fatalf("expected value 42, got %d", value)
	}
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}
	if _, ok := o.IsIncomplete(); ok {
		t.Fatal("did not expect Incomplete")
	}
	if o.Err() != nil {
		t.Fatalf("did not expect error, got %v", o.Err())
	}
}

func TestOutcomeIncompleteClampsToOne(t *testing.T) {
	o := Incomplete[int](0)
	needed, ok := o.IsIncomplete()
	if !ok {
		t.Fatal("expected Incomplete outcome")
	}
	if needed != 1 {
		t.Fatalf("expected needed clamped to 1, got %d", needed)
	}
}

func TestOutcomeError(t *testing.T) {
	wantErr := ErrInsufficientBuffer
	o := Error[int](wantErr)
	if _, _, ok := o.IsParsed(); ok {
		t.Fatal("did not expect Parsed")
	}
	if got := o.Err(); got != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, got)
	}
}
