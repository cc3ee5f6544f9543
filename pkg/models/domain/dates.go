package domain

import "time"

type DateKind int

const (
	// DateSingle is one exact day (dd_mm_yyyy).
	DateSingle DateKind = iota
	// DateMonth is a whole month (*mm_yyyy).
	DateMonth
	// DateRange is an inclusive day range (dd_mm_yyyy -> dd_mm_yyyy).
	DateRange
)

// DateSpec is a parsed date specification. Start is the single day, the first
// day of the month, or the range start; End is set for DateRange only.
// Raw preserves the textual form for dataset names and artifact names.
type DateSpec struct {
	Kind  DateKind
	Start time.Time
	End   time.Time
	Raw   string
}

func (s DateSpec) String() string {
	return s.Raw
}
