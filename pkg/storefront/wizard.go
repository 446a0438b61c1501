package storefront

import "sync"

const wizardLastStep = 3

// Wizard is the four-step checkout flow: 0 cart review, 1 payment method,
// 2 delivery method, 3 customer details and submit. Strictly forward on
// selection, strictly back by one, never past the edges.
type Wizard struct {
	mu   sync.Mutex
	step int
}

func NewWizard() *Wizard {
	return &Wizard{}
}

// Step returns the current step.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Next advances one step, stopping at the final one.
func (w *Wizard) Next() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step < wizardLastStep {
		w.step++
	}
	return w.step
}

// Back moves one step backwards, stopping at zero.
func (w *Wizard) Back() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > 0 {
		w.step--
	}
	return w.step
}

// Reset returns the wizard to the cart-review step.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = 0
}
