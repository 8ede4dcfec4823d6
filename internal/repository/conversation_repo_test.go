package repository

import "testing"

func TestCanonicalPairOrdersLexicographically(t *testing.T) {
	smaller := "1f0a7c1e-0000-4000-8000-000000000001"
	larger := "9f0a7c1e-0000-4000-8000-000000000002"

	p1, p2 := CanonicalPair(larger, smaller)
	if p1 != smaller || p2 != larger {
		t.Fatalf("pair not canonical: %s, %s", p1, p2)
	}

	// already ordered input is unchanged
	q1, q2 := CanonicalPair(smaller, larger)
	if q1 != p1 || q2 != p2 {
		t.Fatalf("ordered input changed: %s, %s", q1, q2)
	}
}

func TestCanonicalPairNormalizesUUIDForms(t *testing.T) {
	// uppercase "AB" sorts before lowercase "aa" as raw strings, but the
	// uuid bytes order the other way; normalization must win
	upper := "AB000000-0000-4000-8000-000000000000"
	lower := "aa000000-0000-4000-8000-000000000000"

	p1, p2 := CanonicalPair(upper, lower)
	if p1 != "aa000000-0000-4000-8000-000000000000" {
		t.Fatalf("participant_1 = %s, want the aa uuid", p1)
	}
	if p2 != "ab000000-0000-4000-8000-000000000000" {
		t.Fatalf("participant_2 = %s, want the lowercased ab uuid", p2)
	}

	// braced and urn forms reduce to the same canonical pair
	b1, b2 := CanonicalPair("{AB000000-0000-4000-8000-000000000000}", "urn:uuid:aa000000-0000-4000-8000-000000000000")
	if b1 != p1 || b2 != p2 {
		t.Fatalf("alternate forms produced a different pair: %s, %s", b1, b2)
	}
}
