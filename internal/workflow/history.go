package workflow

// Ledger is the append-only, newest-first record of successful generations.
// It lives only in process memory for the session; nothing is persisted.
//
// Entries are stored oldest-first so Append is an amortized O(1) tail
// insert; Entries reverses into the newest-first view on read.
type Ledger struct {
	entries []HistoryEntry
}

// Append inserts an entry at the logical head. Existing entries are never
// reordered or edited in place.
func (l *Ledger) Append(entry HistoryEntry) {
	l.entries = append(l.entries, entry)
}

// Entries returns a snapshot of the ledger, newest first.
func (l *Ledger) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(l.entries))
	for i, entry := range l.entries {
		out[len(out)-1-i] = entry
	}
	return out
}

// Len reports the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear empties the ledger atomically. Irreversible; the caller is
// responsible for confirming with the user first.
func (l *Ledger) Clear() {
	l.entries = nil
}
