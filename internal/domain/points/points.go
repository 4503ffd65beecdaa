// Package points maps finish places to championship points.
package points

import "github.com/okian/alpine/internal/domain/types"

// Scoring ranges per division. Places beyond these earn nothing.
const (
	HSScoringPlaces   = 30
	OpenScoringPlaces = 15
)

var hsTable = [HSScoringPlaces + 1]int{
	0,
	50, 40, 35, 32, 30,
	28, 26, 24, 22, 21,
	20, 19, 18, 17, 16,
	15, 14, 13, 12, 11,
	10, 9, 8, 7, 6,
	5, 4, 3, 2, 1,
}

var openTable = [OpenScoringPlaces + 1]int{
	0,
	25, 20, 18, 16, 14,
	12, 10, 8, 7, 6,
	5, 4, 3, 2, 1,
}

// ForPlace returns the points a place earns in a division. Places outside the
// table, including 0 for non-finishers, earn 0.
func ForPlace(place int, division types.Division) int {
	if place < 1 {
		return 0
	}
	if division == types.Open {
		if place > OpenScoringPlaces {
			return 0
		}
		return openTable[place]
	}
	if place > HSScoringPlaces {
		return 0
	}
	return hsTable[place]
}
