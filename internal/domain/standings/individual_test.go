package standings_test

import (
	"testing"

	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/internal/domain/standings"
	"github.com/okian/alpine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(first, last, school string, race, pts int) model.PlacementRecord {
	return model.PlacementRecord{
		FirstName:  first,
		LastName:   last,
		School:     school,
		Gender:     types.Girls,
		Sport:      types.Ski,
		Division:   types.HS,
		RaceID:     race * 10,
		RaceNumber: race,
		Points:     pts,
	}
}

func series(first, last, school string, pts map[int]int) []model.PlacementRecord {
	var out []model.PlacementRecord
	for race := 1; race <= 12; race++ {
		if p, ok := pts[race]; ok {
			out = append(out, rec(first, last, school, race, p))
		}
	}
	return out
}

func join(parts ...[]model.PlacementRecord) []model.PlacementRecord {
	var out []model.PlacementRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestIndividual_DropScore(t *testing.T) {
	Convey("Given a five-race season", t, func() {
		x := series("Xena", "Xu", "North", map[int]int{1: 50, 2: 40, 3: 0, 4: 30, 5: 28})
		y := series("Yves", "Young", "South", map[int]int{1: 50, 2: 50, 3: 50})

		Convey("When building the leaderboard", func() {
			board := standings.Individual(join(x, y))

			Convey("Then the best three results count", func() {
				So(board, ShouldHaveLength, 2)
				So(board[0].FirstName, ShouldEqual, "Yves")
				So(board[0].TotalPoints, ShouldEqual, 150)
				So(board[0].Rank, ShouldEqual, 1)
				So(board[1].FirstName, ShouldEqual, "Xena")
				So(board[1].TotalPoints, ShouldEqual, 120)
				So(board[1].Rank, ShouldEqual, 2)
			})

			Convey("And every result is flagged as counted or not", func() {
				xena := board[1]
				So(xena.RaceCount, ShouldEqual, 5)
				So(xena.Results, ShouldHaveLength, 5)
				counted := map[int]bool{}
				for _, r := range xena.Results {
					counted[r.RaceNumber] = r.Counted
				}
				So(counted, ShouldResemble, map[int]bool{1: true, 2: true, 3: false, 4: true, 5: false})
				So(xena.Counting, ShouldHaveLength, 3)
				So(xena.Counting[0].RaceNumber, ShouldEqual, 1)
				So(xena.Counting[2].RaceNumber, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a six-race season", t, func() {
		a := series("Ann", "Avery", "North", map[int]int{1: 10, 2: 20, 3: 30, 4: 40, 5: 50, 6: 5})
		filler := series("Bo", "Bell", "South", map[int]int{6: 1})

		Convey("Then the best four results count", func() {
			board := standings.Individual(join(a, filler))
			So(board[0].TotalPoints, ShouldEqual, 140)
			So(board[0].Counting, ShouldHaveLength, 4)
		})
	})

	Convey("Given equal point values competing for the last counting slot", t, func() {
		a := series("Ann", "Avery", "North", map[int]int{1: 20, 2: 20, 3: 20, 4: 20})

		Convey("Then the earlier races are the ones counted", func() {
			board := standings.Individual(a)
			So(board[0].TotalPoints, ShouldEqual, 60)
			So(board[0].Counting[0].RaceNumber, ShouldEqual, 1)
			So(board[0].Counting[2].RaceNumber, ShouldEqual, 3)
		})
	})

	Convey("Given an athlete who never scored", t, func() {
		zero := series("Zed", "Zero", "North", map[int]int{1: 0, 2: 0})
		a := series("Ann", "Avery", "North", map[int]int{1: 5})

		Convey("Then the athlete is left off the leaderboard", func() {
			board := standings.Individual(join(zero, a))
			So(board, ShouldHaveLength, 1)
			So(board[0].FirstName, ShouldEqual, "Ann")
		})
	})

	Convey("Given no records", t, func() {
		Convey("Then the leaderboard is empty, not nil", func() {
			board := standings.Individual(nil)
			So(board, ShouldNotBeNil)
			So(board, ShouldBeEmpty)
		})
	})
}

func TestIndividual_TieBreaks(t *testing.T) {
	Convey("Given two athletes tied on total", t, func() {
		Convey("When they met in a shared race", func() {
			// Both 60; Abe has the better single result but Zoe won race 1.
			zoe := series("Zoe", "Zimmer", "North", map[int]int{1: 30, 2: 30})
			abe := series("Abe", "Adams", "South", map[int]int{1: 20, 3: 40})

			board := standings.Individual(join(abe, zoe))

			Convey("Then head-to-head decides", func() {
				So(board[0].FirstName, ShouldEqual, "Zoe")
				So(board[0].Rank, ShouldEqual, 1)
				So(board[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When they never raced each other", func() {
			zoe := series("Zoe", "Zimmer", "North", map[int]int{1: 30, 2: 30})
			abe := series("Abe", "Adams", "South", map[int]int{3: 40, 4: 20})

			board := standings.Individual(join(zoe, abe))

			Convey("Then the best single result decides", func() {
				So(board[0].FirstName, ShouldEqual, "Abe")
				So(board[1].FirstName, ShouldEqual, "Zoe")
				So(board[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When their results match position by position", func() {
			zoe := series("Zoe", "Zimmer", "North", map[int]int{1: 30, 2: 30, 3: 0})
			abe := series("Abe", "Adams", "South", map[int]int{4: 30, 5: 30})

			board := standings.Individual(join(abe, zoe))

			Convey("Then the athlete with more results ranks higher", func() {
				So(board[0].FirstName, ShouldEqual, "Zoe")
				So(board[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When every criterion is exhausted", func() {
			zoe := series("Zoe", "Zimmer", "North", map[int]int{1: 30})
			abe := series("Abe", "Adams", "South", map[int]int{2: 30})
			cal := series("Cal", "Cole", "East", map[int]int{3: 20})

			board := standings.Individual(join(zoe, cal, abe))

			Convey("Then both share the rank and the next athlete skips one", func() {
				So(board, ShouldHaveLength, 3)
				So(board[0].Rank, ShouldEqual, 1)
				So(board[1].Rank, ShouldEqual, 1)
				So(board[2].Rank, ShouldEqual, 3)
			})

			Convey("And true ties are listed by last name", func() {
				So(board[0].LastName, ShouldEqual, "Adams")
				So(board[1].LastName, ShouldEqual, "Zimmer")
			})
		})
	})
}

func TestIndividual_Properties(t *testing.T) {
	Convey("Given a mixed season", t, func() {
		records := join(
			series("Ann", "Avery", "North", map[int]int{1: 50, 2: 40, 3: 35, 4: 32, 5: 30, 6: 28, 7: 26}),
			series("Bo", "Bell", "South", map[int]int{1: 40, 3: 50, 5: 50}),
			series("Cy", "Cole", "East", map[int]int{2: 50, 4: 50, 6: 21, 7: 22}),
			series("Di", "Dunn", "West", map[int]int{7: 50}),
			series("Ed", "Eames", "West", map[int]int{6: 50}),
		)

		board := standings.Individual(records)

		Convey("Then no athlete counts more than the rule allows", func() {
			for _, a := range board {
				So(len(a.Counting), ShouldBeLessThanOrEqualTo, standings.CountingResults(7))
				So(len(a.Counting), ShouldBeLessThanOrEqualTo, a.RaceCount)
			}
		})

		Convey("And ranks are monotonic in total points", func() {
			for i := 1; i < len(board); i++ {
				So(board[i-1].TotalPoints, ShouldBeGreaterThanOrEqualTo, board[i].TotalPoints)
				So(board[i-1].Rank, ShouldBeLessThanOrEqualTo, board[i].Rank)
			}
		})

		Convey("And recomputing yields an identical leaderboard", func() {
			So(standings.Individual(records), ShouldResemble, board)
		})
	})

	Convey("Given the counting rule", t, func() {
		So(standings.CountingResults(0), ShouldEqual, 3)
		So(standings.CountingResults(5), ShouldEqual, 3)
		So(standings.CountingResults(6), ShouldEqual, 4)
		So(standings.CountingResults(11), ShouldEqual, 4)
	})
}

func TestIndividualLeaderboard_RaceCount(t *testing.T) {
	Convey("Given a sixth race whose only finisher did not score", t, func() {
		a := series("Ann", "Avery", "North", map[int]int{1: 10, 2: 20, 3: 30, 4: 40, 5: 50})
		unplaced := series("Bo", "Bell", "South", map[int]int{6: 0})

		board := standings.IndividualLeaderboard(join(a, unplaced))

		Convey("Then the race still counts towards the drop-score rule", func() {
			So(standings.RaceCount(join(a, unplaced)), ShouldEqual, 6)
			So(board.RaceCount, ShouldEqual, 6)
			So(board.Counting, ShouldEqual, 4)
		})

		Convey("Then the board lists only the scorer with four results counted", func() {
			So(board.Athletes, ShouldHaveLength, 1)
			So(board.Athletes[0].TotalPoints, ShouldEqual, 140)
			So(board.Athletes[0].Counting, ShouldHaveLength, 4)
		})
	})

	Convey("Given no records", t, func() {
		board := standings.IndividualLeaderboard(nil)
		So(board.RaceCount, ShouldEqual, 0)
		So(board.Counting, ShouldEqual, 3)
		So(board.Athletes, ShouldBeEmpty)
	})
}
