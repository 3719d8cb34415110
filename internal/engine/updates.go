package engine

import "fmt"

// ProgressUpdate represents a progress event during a reconciliation run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Run phase enumeration, in execution order.
type Phase int

const (
	Fetching Phase = iota
	Listing
	Resolving
	Diffing
	Applying
	Recording
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Listing:
		return "listing"
	case Resolving:
		return "resolving"
	case Diffing:
		return "diffing"
	case Applying:
		return "applying"
	case Recording:
		return "recording"
	default:
		return ""
	}
}

func fetchingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    1,
		Total:   1,
		Message: "Fetching source playlist from Spotify...",
	}
}

func listingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Listing,
		Step:    1,
		Total:   1,
		Message: "Listing destination playlist...",
	}
}

func resolvingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolving,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d tracks...", total),
	}
}

func diffingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Diffing,
		Step:    1,
		Total:   1,
		Message: "Computing minimal operation plan...",
	}
}

func applyingUpdate(step, total int, desc string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Applying,
		Step:    step,
		Total:   total,
		Message: desc,
	}
}

func recordingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recording,
		Step:    1,
		Total:   1,
		Message: "Recording run status...",
	}
}
