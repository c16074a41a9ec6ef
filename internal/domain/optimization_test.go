package domain

import "testing"

func TestValidStatusTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{RecommendationPending, RecommendationAccepted, true},
		{RecommendationPending, RecommendationRejected, true},
		{RecommendationPending, RecommendationApplied, false},
		{RecommendationAccepted, RecommendationApplied, true},
		{RecommendationAccepted, RecommendationRejected, true},
		{RecommendationAccepted, RecommendationPending, false},
		{RecommendationApplied, RecommendationRejected, false},
		{RecommendationRejected, RecommendationAccepted, false},
		{"bogus", RecommendationAccepted, false},
	}
	for _, c := range cases {
		if got := ValidStatusTransition(c.from, c.to); got != c.want {
			t.Fatalf("%s -> %s: expected %v, got %v", c.from, c.to, c.want, got)
		}
	}
}
