package classify

import "testing"

func TestClassify_MatchesKeywordInTitle(t *testing.T) {
	got := Classify("Wildfire spreads near Sacramento", "", []string{"California"})
	if got != "California" {
		t.Fatalf("expected California, got %s", got)
	}
}

func TestClassify_MatchesKeywordInDescription(t *testing.T) {
	got := Classify("Local election results", "Voters in Austin turned out in record numbers", nil)
	if got != "Texas" {
		t.Fatalf("expected Texas, got %s", got)
	}
}

func TestClassify_NoMatchReturnsGeneral(t *testing.T) {
	got := Classify("Stock markets rally", "Global indices closed higher", nil)
	if got != General {
		t.Fatalf("expected %s, got %s", General, got)
	}
}

func TestClassify_CaseSensitive(t *testing.T) {
	// "sacramento" lowercased must not match the "Sacramento" keyword.
	got := Classify("wildfire spreads near sacramento", "", []string{"California"})
	if got != General {
		t.Fatalf("expected %s for lowercased input, got %s", General, got)
	}
}

func TestClassify_RestrictedCandidates(t *testing.T) {
	// Texas matches the text but is not in the candidate set.
	got := Classify("Houston launches new transit line", "", []string{"Nevada", "Oregon"})
	if got != General {
		t.Fatalf("expected %s outside candidate set, got %s", General, got)
	}
}

func TestClassify_CandidateOrderWins(t *testing.T) {
	// Both regions match; the first candidate takes priority.
	title := "From Seattle to Portland by rail"
	if got := Classify(title, "", []string{"Oregon", "Washington"}); got != "Oregon" {
		t.Fatalf("expected Oregon first, got %s", got)
	}
	if got := Classify(title, "", []string{"Washington", "Oregon"}); got != "Washington" {
		t.Fatalf("expected Washington first, got %s", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	title := "Chicago hosts annual jazz festival"
	first := Classify(title, "", nil)
	for i := 0; i < 50; i++ {
		if got := Classify(title, "", nil); got != first {
			t.Fatalf("classification not stable: %s vs %s", first, got)
		}
	}
	if first != "Illinois" {
		t.Fatalf("expected Illinois, got %s", first)
	}
}

func TestRegions_SortedAndCopied(t *testing.T) {
	regions := Regions()
	if len(regions) == 0 {
		t.Fatal("expected known regions")
	}
	for i := 1; i < len(regions); i++ {
		if regions[i-1] >= regions[i] {
			t.Fatalf("regions not in canonical order at %d: %s >= %s", i, regions[i-1], regions[i])
		}
	}
	regions[0] = "mutated"
	if Regions()[0] == "mutated" {
		t.Fatal("Regions must return a copy")
	}
}
