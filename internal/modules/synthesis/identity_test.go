package synthesis

import "testing"

func TestNodeIdentityDeterministic(t *testing.T) {
	a := NodeIdentity("Spaced Repetition", "learning_science")
	b := NodeIdentity("Spaced Repetition", "learning_science")
	if a != b {
		t.Fatalf("same inputs yielded different identities: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("identity length = %d, want 64 hex chars", len(a))
	}
}

func TestNodeIdentityNormalization(t *testing.T) {
	base := NodeIdentity("spaced repetition", "learning_science")
	for _, title := range []string{
		"Spaced Repetition",
		"  spaced   repetition  ",
		"SPACED\tREPETITION",
	} {
		if got := NodeIdentity(title, "Learning_Science"); got != base {
			t.Fatalf("NodeIdentity(%q) = %s, want %s", title, got, base)
		}
	}
}

func TestNodeIdentityDistinguishesDomain(t *testing.T) {
	a := NodeIdentity("spaced repetition", "learning_science")
	b := NodeIdentity("spaced repetition", "cognitive_psychology")
	if a == b {
		t.Fatal("different domains yielded the same identity")
	}
}
