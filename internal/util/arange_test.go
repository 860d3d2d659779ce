package util

import "testing"

func TestParsePathScalar(t *testing.T) {
	name, _, hasRange, err := ParsePath("s")
	if err != nil || hasRange || name != "s" {
		t.Fatalf("ParsePath(s) = %q, %v, %v", name, hasRange, err)
	}
}

func TestParsePathDescendingRange(t *testing.T) {
	name, rng, hasRange, err := ParsePath("x[7:0]")
	if err != nil || !hasRange || name != "x" {
		t.Fatalf("unexpected parse result: %v", err)
	}
	idx := rng.Indices()
	want := []int{7, 6, 5, 4, 3, 2, 1, 0}
	for i, v := range want {
		if idx[i] != v {
			t.Fatalf("Indices()[%d] = %d, want %d", i, idx[i], v)
		}
	}
}

func TestParsePathAscendingRange(t *testing.T) {
	_, rng, _, err := ParsePath("x[0:3]")
	if err != nil {
		t.Fatal(err)
	}
	idx := rng.Indices()
	want := []int{0, 1, 2, 3}
	for i, v := range want {
		if idx[i] != v {
			t.Fatalf("Indices()[%d] = %d, want %d", i, idx[i], v)
		}
	}
}

func TestParsePathSingleIndex(t *testing.T) {
	_, rng, hasRange, err := ParsePath("x[5]")
	if err != nil || !hasRange {
		t.Fatal(err)
	}
	if rng.Width() != 1 {
		t.Fatalf("Width() = %d, want 1", rng.Width())
	}
}

func TestParsePathMalformed(t *testing.T) {
	if _, _, _, err := ParsePath("x[abc]"); err == nil {
		t.Fatal("expected error for non-numeric index")
	}
	if _, _, _, err := ParsePath("x["); err == nil {
		t.Fatal("expected error for unterminated bracket")
	}
}
