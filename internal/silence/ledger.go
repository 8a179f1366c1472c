package silence

import (
	"fmt"
	"sort"
	"time"
)

// EntryCategory is why the ledger entry was written: the pipeline
// branch that skipped, capped, or timed out an interaction.
type EntryCategory string

const (
	CategorySkip    EntryCategory = "skip"
	CategoryCap     EntryCategory = "cap"
	CategoryTimeout EntryCategory = "timeout"
)

// Impact is the three-axis confidence adjustment: each axis is
// independently clamped to [-100, 0].
type Impact struct {
	Coverage            float64
	PromiseVerification float64
	Overall             float64
}

func (i Impact) clamp() Impact {
	return Impact{
		Coverage:            clampAxis(i.Coverage),
		PromiseVerification: clampAxis(i.PromiseVerification),
		Overall:             clampAxis(i.Overall),
	}
}

func clampAxis(v float64) float64 {
	if v > 0 {
		return 0
	}
	if v < -100 {
		return -100
	}
	return v
}

func (i Impact) add(o Impact) Impact {
	return Impact{
		Coverage:            i.Coverage + o.Coverage,
		PromiseVerification: i.PromiseVerification + o.PromiseVerification,
		Overall:             i.Overall + o.Overall,
	}
}

// successShapedStatuses are the outcome statuses the ledger rejects as
// malformed: a silence entry whose outcome would be success-shaped
// makes no sense, so Record refuses it. Named by string rather than
// importing internal/outcome, since outcome consumes silence.Class as
// an input and must not be imported back.
var successShapedStatuses = map[string]bool{
	"Success": true,
}

// Entry is a record of one branch of the pipeline that skipped,
// capped, or timed out an interaction instead of producing a normal
// judgment.
type Entry struct {
	PromiseID string
	Category  EntryCategory
	Type      Class  // zero value "" when the entry isn't a classification outcome
	Status    string // the resulting outcome status, e.g. "Ambiguous", "SilentFailure"
	Impact    Impact
	Reason    string
	Timestamp time.Time
}

// Ledger is the append-only silence ledger.
type Ledger struct {
	entries []Entry
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends entry, rejecting malformed entries whose Status is
// success-shaped.
func (l *Ledger) Record(entry Entry) error {
	if successShapedStatuses[entry.Status] {
		return fmt.Errorf("silence ledger: malformed entry for promise %q: success-shaped status %q", entry.PromiseID, entry.Status)
	}
	entry.Impact = entry.Impact.clamp()
	l.entries = append(l.entries, entry)
	return nil
}

// ByCategory returns all entries with the given category, in record
// order.
func (l *Ledger) ByCategory(c EntryCategory) []Entry {
	return l.filter(func(e Entry) bool { return e.Category == c })
}

// ByType returns all entries with the given silence classification.
func (l *Ledger) ByType(t Class) []Entry {
	return l.filter(func(e Entry) bool { return e.Type == t })
}

// ByPromise returns all entries recorded for the given promise ID.
func (l *Ledger) ByPromise(promiseID string) []Entry {
	return l.filter(func(e Entry) bool { return e.PromiseID == promiseID })
}

// ByStatus returns all entries with the given outcome status.
func (l *Ledger) ByStatus(status string) []Entry {
	return l.filter(func(e Entry) bool { return e.Status == status })
}

func (l *Ledger) filter(pred func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// AggregatedConfidenceImpact returns the clamped sum (−100 .. 0) of
// every entry's impact across all three axes.
func (l *Ledger) AggregatedConfidenceImpact() Impact {
	var total Impact
	for _, e := range l.entries {
		total = total.add(e.Impact)
	}
	return total.clamp()
}

// Summary is the ledger's rollup.
type Summary struct {
	TotalEntries    int
	ByCategory      map[EntryCategory]int
	ByType          map[Class]int
	AggregatedImpact Impact
}

// Summary returns a deterministic rollup of the ledger's contents.
func (l *Ledger) Summary() Summary {
	s := Summary{
		ByCategory:      map[EntryCategory]int{},
		ByType:          map[Class]int{},
		AggregatedImpact: l.AggregatedConfidenceImpact(),
	}
	for _, e := range l.entries {
		s.TotalEntries++
		s.ByCategory[e.Category]++
		if e.Type != "" {
			s.ByType[e.Type]++
		}
	}
	return s
}

// Entries returns a copy of every recorded entry, sorted by promise ID
// then timestamp for deterministic artifact output.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PromiseID != out[j].PromiseID {
			return out[i].PromiseID < out[j].PromiseID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
