package domain

import (
	"testing"
	"time"
)

func TestCapacityLedgerCommitAccumulates(t *testing.T) {
	l := NewCapacityLedger()
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if got := l.Committed(d); got != 0 {
		t.Fatalf("fresh date committed = %v, want 0", got)
	}

	l.Commit(d, 600)
	l.Commit(d, 250.5)
	if got := l.Committed(d); got != 850.5 {
		t.Fatalf("committed = %v, want 850.5", got)
	}

	other := d.AddDate(0, 0, 1)
	if got := l.Committed(other); got != 0 {
		t.Fatalf("sibling date committed = %v, want 0", got)
	}
}

func TestCapacityLedgerIgnoresTimeOfDay(t *testing.T) {
	l := NewCapacityLedger()
	morning := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 19, 30, 0, 0, time.UTC)

	l.Commit(morning, 100)
	if got := l.Committed(evening); got != 100 {
		t.Fatalf("same calendar date committed = %v, want 100", got)
	}
}

func TestCapacityLedgerFirstBindingWins(t *testing.T) {
	l := NewCapacityLedger()
	d := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if got := l.ClusterFor(d); got != -1 {
		t.Fatalf("unclaimed date cluster = %d, want -1", got)
	}

	l.BindCluster(d, 3)
	l.BindCluster(d, 7)
	if got := l.ClusterFor(d); got != 3 {
		t.Fatalf("cluster = %d, want first binding 3", got)
	}
}
