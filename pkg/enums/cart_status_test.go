package enums

import "testing"

func TestCartStatusPredicates(t *testing.T) {
	t.Parallel()

	frozen := []CartStatus{CartStatusPagado, CartStatusPreparacion, CartStatusEntregado, CartStatusCancelado}
	for _, status := range frozen {
		if !status.IsFrozen() {
			t.Fatalf("expected %s to be frozen", status)
		}
	}

	open := []CartStatus{CartStatusInicializado, CartStatusPendiente}
	for _, status := range open {
		if status.IsFrozen() {
			t.Fatalf("expected %s to be mutable", status)
		}
		if status.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}

	if !CartStatusEntregado.IsTerminal() || !CartStatusCancelado.IsTerminal() {
		t.Fatal("entregado and cancelado must be terminal")
	}
	if CartStatusPagado.IsTerminal() || CartStatusPreparacion.IsTerminal() {
		t.Fatal("pagado and preparacion are frozen but not terminal")
	}
}

func TestCartStatusTransitions(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to CartStatus }{
		{CartStatusInicializado, CartStatusPendiente},
		{CartStatusInicializado, CartStatusPagado},
		{CartStatusInicializado, CartStatusCancelado},
		{CartStatusPendiente, CartStatusPagado},
		{CartStatusPendiente, CartStatusCancelado},
		{CartStatusPagado, CartStatusPreparacion},
		{CartStatusPreparacion, CartStatusEntregado},
		{CartStatusPreparacion, CartStatusCancelado},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	blocked := []struct{ from, to CartStatus }{
		{CartStatusEntregado, CartStatusCancelado},
		{CartStatusCancelado, CartStatusInicializado},
		{CartStatusPagado, CartStatusPendiente},
		{CartStatusPendiente, CartStatusEntregado},
		{CartStatusInicializado, CartStatusPreparacion},
	}
	for _, tc := range blocked {
		if tc.from.CanTransitionTo(tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestParseCartStatus(t *testing.T) {
	t.Parallel()

	status, err := ParseCartStatus("preparacion")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != CartStatusPreparacion {
		t.Fatalf("unexpected status %s", status)
	}

	if _, err := ParseCartStatus("enviado"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
