package repository

// Horizon identifies the post-event window a return is measured over.
type Horizon string

const (
	HSameDay Horizon = "same_day"
	HNextDay Horizon = "next_day"
	HLagged  Horizon = "lagged_2_5"
)

// Horizons lists all supported horizons in resolution order.
func Horizons() []Horizon {
	return []Horizon{HSameDay, HNextDay, HLagged}
}

// IsValidHorizon returns true if h is a supported horizon.
func IsValidHorizon(h Horizon) bool {
	switch h {
	case HSameDay, HNextDay, HLagged:
		return true
	default:
		return false
	}
}

// BarOffset returns how many bars after the reference bar the horizon
// resolves at. The lagged window resolves at its configured trailing edge.
func (h Horizon) BarOffset(laggedOffset int) int {
	switch h {
	case HSameDay:
		return 0
	case HNextDay:
		return 1
	case HLagged:
		return laggedOffset
	default:
		return 0
	}
}
