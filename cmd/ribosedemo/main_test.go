package main

import "testing"

func TestFibonacciEndToEnd(t *testing.T) {
	model, err := buildFibonacciModel()
	if err != nil {
		t.Fatalf("buildFibonacciModel: %v", err)
	}

	got, err := runFibonacci(model, "0000\n0000000\n")
	if err != nil {
		t.Fatalf("runFibonacci: %v", err)
	}

	want := "000\n0000000000000\n"
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestFibonacciSequence(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{4, 3},
		{7, 13},
	}
	for _, c := range cases {
		if got := fibonacci(c.n); got != c.want {
			t.Errorf("fibonacci(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}
