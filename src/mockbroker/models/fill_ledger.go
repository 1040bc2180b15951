package models

// FillLedger is the append-only sequence of fills. It is the only source of
// truth for positions.
type FillLedger struct {
	records []FillRecord
}

func NewFillLedger(records []FillRecord) *FillLedger {
	return &FillLedger{
		records: append([]FillRecord(nil), records...),
	}
}

func (l *FillLedger) Append(record FillRecord) {
	l.records = append(l.records, record)
}

func (l *FillLedger) Len() int {
	return len(l.records)
}

func (l *FillLedger) Records() []FillRecord {
	return append([]FillRecord(nil), l.records...)
}

func (l *FillLedger) Reconstruct() map[string]*Position {
	return ReconstructPositions(l.records)
}
