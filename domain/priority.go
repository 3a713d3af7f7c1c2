package domain

// Priority is the ordinal urgency tag of a task. P1 is the most urgent.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"

	DefaultPriority = PriorityP3
)

// Priorities lists the accepted values, most urgent first.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3}

func (p Priority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return true
	}
	return false
}

// OrDefault maps an empty priority to DefaultPriority.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return DefaultPriority
	}
	return p
}

func (p Priority) String() string {
	return string(p)
}
