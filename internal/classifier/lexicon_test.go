package classifier

import (
	"context"
	"testing"
)

func TestLexiconPositive(t *testing.T) {
	clf := NewLexicon()

	label := clf.Classify(context.Background(), "This is amazing and great")
	if label != LabelPositive {
		t.Errorf("Expected %s, got %s", LabelPositive, label)
	}
}

func TestLexiconNegative(t *testing.T) {
	clf := NewLexicon()

	label := clf.Classify(context.Background(), "This is terrible and broken")
	if label != LabelNegative {
		t.Errorf("Expected %s, got %s", LabelNegative, label)
	}
}

func TestLexiconBlankInputDefaultsToNeutral(t *testing.T) {
	clf := NewLexicon()

	for _, text := range []string{"", "   ", "\t\n"} {
		if label := clf.Classify(context.Background(), text); label != LabelNeutral {
			t.Errorf("Classify(%q): expected %s, got %s", text, LabelNeutral, label)
		}
	}
}

func TestLexiconTieFavorsPositive(t *testing.T) {
	clf := NewLexicon()

	// one positive marker, one negative marker
	label := clf.Classify(context.Background(), "good but slow")
	if label != LabelPositive {
		t.Errorf("Expected tie to resolve to %s, got %s", LabelPositive, label)
	}
}

func TestLexiconIsDeterministic(t *testing.T) {
	clf := NewLexicon()

	text := "the service was good, the app was awful, overall bad but fast"
	first := clf.Classify(context.Background(), text)
	for i := 0; i < 10; i++ {
		if got := clf.Classify(context.Background(), text); got != first {
			t.Fatalf("Run %d: expected %s, got %s", i, first, got)
		}
	}
}

func TestLexiconCaseInsensitive(t *testing.T) {
	clf := NewLexicon()

	if label := clf.Classify(context.Background(), "GREAT SERVICE"); label != LabelPositive {
		t.Errorf("Expected %s, got %s", LabelPositive, label)
	}
}

func TestLexiconSubstringContainment(t *testing.T) {
	clf := NewLexicon()

	// "disappointingly" contains "disappointing"
	if label := clf.Classify(context.Background(), "disappointingly bad"); label != LabelNegative {
		t.Errorf("Expected %s, got %s", LabelNegative, label)
	}
}

func TestLexiconCustomWords(t *testing.T) {
	clf := NewLexiconWithWords([]string{"sunny"}, []string{"rainy"})

	if label := clf.Classify(context.Background(), "rainy day"); label != LabelNegative {
		t.Errorf("Expected %s, got %s", LabelNegative, label)
	}
	if label := clf.Classify(context.Background(), "sunny day"); label != LabelPositive {
		t.Errorf("Expected %s, got %s", LabelPositive, label)
	}
}
