package tally_test

import (
	"strings"
	"testing"

	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

var roster = []string{"Ann", "Ben", "Cat", "Dan", "Eve", "Fay", "Gus"}

func TestStandings(t *testing.T) {
	Convey("Given a fresh state on day1", t, func() {
		st := model.NewState(round.Default(), roster)

		Convey("When a voter picks Cat, Ann and Eve", func() {
			So(tally.ApplyBallot(st, 0, []string{"Cat", "Ann", "Eve"}, tally.DefaultBallotSize), ShouldBeNil)
			rows := tally.Standings(st, 0, tally.DefaultLeaderboardSize)

			Convey("Then the three lead at one vote in roster order, then zeros in roster order", func() {
				So(rows, ShouldResemble, []model.Standing{
					{Name: "Ann", Votes: 1},
					{Name: "Cat", Votes: 1},
					{Name: "Eve", Votes: 1},
					{Name: "Ben", Votes: 0},
					{Name: "Dan", Votes: 0},
				})
			})
		})

		Convey("When counts differ", func() {
			st.Participants[6].Votes[0] = 5
			st.Participants[1].Votes[0] = 2
			rows := tally.Standings(st, 0, 2)

			Convey("Then higher counts come first and the limit applies", func() {
				So(rows, ShouldResemble, []model.Standing{{Name: "Gus", Votes: 5}, {Name: "Ben", Votes: 2}})
			})
		})

		Convey("When standings are computed twice", func() {
			So(tally.ApplyBallot(st, 0, []string{"Fay", "Gus", "Dan"}, 3), ShouldBeNil)
			before := st.Clone()
			first := tally.Standings(st, 0, 5)
			second := tally.Standings(st, 0, 5)

			Convey("Then the output is identical and counters are untouched", func() {
				So(second, ShouldResemble, first)
				So(st, ShouldResemble, before)
			})
		})

		Convey("When the limit is not positive", func() {
			Convey("Then every participant is returned", func() {
				So(tally.Standings(st, 0, 0), ShouldHaveLength, len(roster))
			})
		})
	})
}

func TestApplyBallot(t *testing.T) {
	Convey("Given a fresh state", t, func() {
		st := model.NewState(round.Default(), roster)

		for _, picks := range [][]string{
			{},
			{"Ann"},
			{"Ann", "Ben"},
			{"Ann", "Ben", "Cat", "Dan"},
			{"Ann", "Ann", "Ben"},
			{"Ann", "Ann", "Ben", "Cat"},
			{"Ann", " ", "Ben"},
		} {
			picks := picks
			Convey("When the selection has "+describe(picks), func() {
				before := st.Clone()
				err := tally.ApplyBallot(st, 0, picks, 3)

				Convey("Then it fails with an invalid count and leaves counters alone", func() {
					So(err, ShouldWrap, tally.ErrInvalidSelectionCount)
					So(st, ShouldResemble, before)
				})
			})
		}

		Convey("When exactly three names are picked", func() {
			err := tally.ApplyBallot(st, 0, []string{"Ann", "Ben", "Cat"}, 3)

			Convey("Then each gains one vote on that round only", func() {
				So(err, ShouldBeNil)
				So(st.TotalVotes(0), ShouldEqual, 3)
				So(st.TotalVotes(1), ShouldEqual, 0)
			})
		})

		Convey("When a name is not on the roster", func() {
			before := st.Clone()
			err := tally.ApplyBallot(st, 0, []string{"Ann", "Ben", "Zed"}, 3)

			Convey("Then nothing is counted", func() {
				So(err, ShouldWrap, tally.ErrUnknownParticipant)
				So(st, ShouldResemble, before)
			})
		})
	})
}

func describe(picks []string) string {
	if len(picks) == 0 {
		return "no names"
	}
	return "[" + strings.Join(picks, ",") + "]"
}
