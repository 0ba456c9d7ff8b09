package token

import "testing"

func TestEffectivePower(t *testing.T) {
	if got := EffectivePower(50_000, 330_000); got != 380_000 {
		t.Fatalf("expected 380000, got %d", got)
	}
	if got := EffectivePower(0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := EffectivePower(1_000, 0); got != 1_000 {
		t.Fatalf("expected own balance only, got %d", got)
	}
}

func TestHasDelegated(t *testing.T) {
	if (Account{}).HasDelegated() {
		t.Fatal("expected fresh account to have no delegate")
	}
	if !(Account{DelegatedTo: "delegate"}).HasDelegated() {
		t.Fatal("expected delegated account to report delegate")
	}
}
