package domain

import "time"

// CapacityLedger tracks cumulative weight committed to each calendar
// date during one allocation pass. It only ever grows and is discarded
// when the run ends. Not safe for concurrent use; a run owns it alone.
type CapacityLedger struct {
	committed map[string]float64
	cluster   map[string]int
}

func NewCapacityLedger() *CapacityLedger {
	return &CapacityLedger{
		committed: make(map[string]float64),
		cluster:   make(map[string]int),
	}
}

func dateKey(d time.Time) string { return d.Format("2006-01-02") }

// Committed returns the weight already assigned to a date.
func (l *CapacityLedger) Committed(d time.Time) float64 {
	return l.committed[dateKey(d)]
}

// Commit adds weight to a date's running total.
func (l *CapacityLedger) Commit(d time.Time, weightKg float64) {
	l.committed[dateKey(d)] += weightKg
}

// ClusterFor returns the cluster a date is bound to, or -1 when the
// date is still unclaimed.
func (l *CapacityLedger) ClusterFor(d time.Time) int {
	if c, ok := l.cluster[dateKey(d)]; ok {
		return c
	}
	return -1
}

// BindCluster claims a date for a cluster. The first binding wins.
func (l *CapacityLedger) BindCluster(d time.Time, cluster int) {
	k := dateKey(d)
	if _, ok := l.cluster[k]; !ok {
		l.cluster[k] = cluster
	}
}
