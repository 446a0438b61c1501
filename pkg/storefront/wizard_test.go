package storefront

import "testing"

func TestWizardStepsForwardAndBack(t *testing.T) {
	w := NewWizard()
	if w.Step() != 0 {
		t.Fatalf("expected step 0, got %d", w.Step())
	}
	for i := 0; i < 6; i++ {
		w.Next()
	}
	if w.Step() != wizardLastStep {
		t.Fatalf("expected cap at %d, got %d", wizardLastStep, w.Step())
	}
	for i := 0; i < 6; i++ {
		w.Back()
	}
	if w.Step() != 0 {
		t.Fatalf("expected floor at 0, got %d", w.Step())
	}
}

func TestWizardReset(t *testing.T) {
	w := NewWizard()
	w.Next()
	w.Next()
	w.Reset()
	if w.Step() != 0 {
		t.Fatalf("expected 0 after reset, got %d", w.Step())
	}
}
