package editorial

import (
	"fmt"
	"math"
)

// CardSummary returns a short template summary describing a market's state
// for its feed card. Probability is on the 0-100 scale and changePct is the
// signed 24h change in percentage points.
func CardSummary(probability int, changePct float64) string {
	absChange := math.Abs(changePct)

	if absChange >= 10 && changePct > 0 {
		return fmt.Sprintf(
			"Prediction markets have surged %.0f%% in the last 24 hours, signaling growing confidence at %d%% likelihood.",
			absChange, probability)
	}

	if absChange >= 10 && changePct < 0 {
		return fmt.Sprintf(
			"Market confidence has dropped %.0f%% in the last 24 hours, reflecting increasing uncertainty.",
			absChange)
	}

	if probability >= 90 {
		changeClause := ""
		if absChange >= 2 {
			direction := "a recent surge"
			if changePct < 0 {
				direction = "despite recent movement"
			}
			changeClause = fmt.Sprintf(", %s of %.0f%%", direction, absChange)
		}
		return fmt.Sprintf("Markets assign %d%% probability to this outcome%s.", probability, changeClause)
	}

	if probability <= 15 {
		return fmt.Sprintf("Markets see this as highly unlikely at just %d%% probability.", probability)
	}

	return fmt.Sprintf("Traders currently price this outcome at %d%% likelihood.", probability)
}
