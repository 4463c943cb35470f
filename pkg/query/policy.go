package query

import (
	"fmt"
	"strings"
)

// State is a named predicate evaluated by IsState
type State string

const (
	StateStarted        State = "started"
	StateStopped        State = "stopped"
	StatePromoted       State = "promoted"
	StateUnpromoted     State = "unpromoted"
	StateStarting       State = "starting"
	StateStopping       State = "stopping"
	StateMigrating      State = "migrating"
	StatePromoting      State = "promoting"
	StateDemoting       State = "demoting"
	StateEnabled        State = "enabled"
	StateDisabled       State = "disabled"
	StateManaged        State = "managed"
	StateUnmanaged      State = "unmanaged"
	StateMaintenance    State = "maintenance"
	StateFailed         State = "failed"
	StateActive         State = "active"
	StateOrphaned       State = "orphaned"
	StateBlocked        State = "blocked"
	StateFailureIgnored State = "failure-ignored"
	StatePending        State = "pending"
	StateLockedTo       State = "locked-to"
)

// States lists every supported state
var States = []State{
	StateStarted, StateStopped, StatePromoted, StateUnpromoted,
	StateStarting, StateStopping, StateMigrating, StatePromoting, StateDemoting,
	StateEnabled, StateDisabled, StateManaged, StateUnmanaged, StateMaintenance,
	StateFailed, StateActive, StateOrphaned, StateBlocked, StateFailureIgnored,
	StatePending, StateLockedTo,
}

// ParseState converts a user supplied state name
func ParseState(s string) (State, error) {
	for _, st := range States {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", s)
}

// HasValue reports whether the state carries a value usable with IsStateExactValue
func (s State) HasValue() bool {
	return s == StatePending || s == StateLockedTo
}

// Quantifier reduces a sequence of child results to one boolean. The zero
// value means no quantifier was requested.
type Quantifier string

const (
	QuantifierAll  Quantifier = "all"
	QuantifierAny  Quantifier = "any"
	QuantifierNone Quantifier = "none"
)

// ParseQuantifier converts a user supplied quantifier name
func ParseQuantifier(s string) (Quantifier, error) {
	switch q := Quantifier(strings.ToLower(s)); q {
	case QuantifierAll, QuantifierAny, QuantifierNone:
		return q, nil
	}
	return "", fmt.Errorf("unknown quantifier %q, expected all, any or none", s)
}

// Reduce folds child results. An empty sequence is false for every quantifier.
func (q Quantifier) Reduce(results []bool) bool {
	if len(results) == 0 {
		return false
	}
	trueCount := 0
	for _, r := range results {
		if r {
			trueCount++
		}
	}
	switch q {
	case QuantifierAll:
		return trueCount == len(results)
	case QuantifierAny:
		return trueCount > 0
	case QuantifierNone:
		return trueCount == 0
	}
	return false
}

// Defaults are the quantifiers applied when a query does not request one
type Defaults struct {
	Members   Quantifier
	Instances Quantifier
}

// Validate checks both quantifiers are set to a known value
func (d Defaults) Validate() error {
	for name, q := range map[string]Quantifier{"members": d.Members, "instances": d.Instances} {
		if _, err := ParseQuantifier(string(q)); err != nil {
			return fmt.Errorf("default %s quantifier: %w", name, err)
		}
	}
	return nil
}

// Policy holds the caller's aggregation choices for a state query. Empty
// fields were not requested.
type Policy struct {
	Node      string
	Members   Quantifier
	Instances Quantifier
}

func (p Policy) requested() bool {
	return p.Node != "" || p.Members != "" || p.Instances != ""
}
