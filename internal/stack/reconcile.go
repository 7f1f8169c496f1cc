package stack

// MatchReason records how a serialized argument was mapped onto the live
// argument contract during load.
type MatchReason int

const (
	// MatchExact means same position and same name.
	MatchExact MatchReason = iota + 1
	// MatchName means the name was found at a different position.
	MatchName
	// MatchPosition means the position was reused even though the names
	// differ; last-resort alignment.
	MatchPosition
	// MatchDropped means the serialized argument has no counterpart; its
	// recorded value is never applied.
	MatchDropped
)

// String returns a short label for the reason.
func (r MatchReason) String() string {
	switch r {
	case MatchExact:
		return "exact"
	case MatchName:
		return "name-moved"
	case MatchPosition:
		return "position-fallback"
	case MatchDropped:
		return "dropped"
	}
	return "unknown"
}

// Match maps one serialized positional argument onto the live contract.
// Live is -1 for dropped arguments.
type Match struct {
	Serialized int
	Live       int
	Reason     MatchReason
}

// ReconcileArgs computes the best-effort plan for applying serialized
// positional argument values onto a possibly-changed live argument list.
// Matching proceeds in three stages: exact position+name, then name-only
// (position may have shifted), then pure positional alignment for arguments
// whose names no longer exist; anything left is dropped. Each live position
// is claimed at most once. The result is in serialized order.
func ReconcileArgs(serialized, live []string) []Match {
	liveIndex := make(map[string]int, len(live))
	for i, name := range live {
		if _, seen := liveIndex[name]; !seen {
			liveIndex[name] = i
		}
	}

	claimed := make(map[int]bool, len(live))
	matches := make([]Match, len(serialized))
	var unresolved []int

	for i, name := range serialized {
		if i < len(live) && !claimed[i] && live[i] == name {
			matches[i] = Match{Serialized: i, Live: i, Reason: MatchExact}
			claimed[i] = true
			continue
		}
		if j, ok := liveIndex[name]; ok && !claimed[j] {
			matches[i] = Match{Serialized: i, Live: j, Reason: MatchName}
			claimed[j] = true
			continue
		}
		unresolved = append(unresolved, i)
	}

	for _, i := range unresolved {
		if i < len(live) && !claimed[i] {
			matches[i] = Match{Serialized: i, Live: i, Reason: MatchPosition}
			claimed[i] = true
			continue
		}
		matches[i] = Match{Serialized: i, Live: -1, Reason: MatchDropped}
	}
	return matches
}
