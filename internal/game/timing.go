package game

// DefaultTickRate is ticks per second when none is configured.
const DefaultTickRate = 20

// StatsInterval is how often, in seconds, the loop logs tick statistics.
const StatsInterval = 10.0

// SecsToTicks converts a duration in seconds to ticks at rate. The result is
// at least one tick.
func SecsToTicks(s float64, rate int) int {
	t := int(s * float64(rate))
	if t < 1 {
		t = 1
	}
	return t
}
