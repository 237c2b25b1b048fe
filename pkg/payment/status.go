package payment

// Status is the lifecycle state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// legalTransitions is the closed transition table:
//
//	Pending   -> Completed | Failed
//	Completed -> Refunded
//	Failed, Refunded are terminal.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusCompleted: true, StatusFailed: true},
	StatusCompleted: {StatusRefunded: true},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	return legalTransitions[s][next]
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}
