package roster_test

import (
	"testing"

	"github.com/okian/elimvote/internal/domain/lifecycle"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/roster"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAdd(t *testing.T) {
	Convey("Given a roster of three", t, func() {
		st := model.NewState(round.Default(), []string{"Ann", "Ben", "Cat"})

		Convey("When a padded new name is added", func() {
			ev, err := roster.Add(st, "  Dan  ")

			Convey("Then it is trimmed, appended and zeroed for every round", func() {
				So(err, ShouldBeNil)
				So(ev.Participant, ShouldEqual, "Dan")
				So(st.Names(), ShouldResemble, []string{"Ann", "Ben", "Cat", "Dan"})
				dan := st.Participants[3]
				So(dan.Votes, ShouldResemble, map[round.ID]int{0: 0, 1: 0, 2: 0})
				So(st.Validate(), ShouldBeNil)
			})
		})

		Convey("When a blank name is added", func() {
			_, err := roster.Add(st, "   ")

			Convey("Then it fails", func() {
				So(err, ShouldEqual, roster.ErrEmptyName)
				So(st.Participants, ShouldHaveLength, 3)
			})
		})

		Convey("When a name differing only in case is added", func() {
			_, err := roster.Add(st, "bEN")

			Convey("Then it is a duplicate", func() {
				So(err, ShouldWrap, roster.ErrDuplicateName)
				So(st.Participants, ShouldHaveLength, 3)
			})
		})

		Convey("When the status map only covers opened rounds", func() {
			st.Status = map[round.ID]round.Status{0: {}}
			_, err := roster.Add(st, "Eve")

			Convey("Then the new counter set matches the known rounds", func() {
				So(err, ShouldBeNil)
				So(st.Participants[3].Votes, ShouldResemble, map[round.ID]int{0: 0})
			})
		})
	})
}

func TestRemove(t *testing.T) {
	Convey("Given an archived day1 and votes on day2", t, func() {
		st := model.NewState(round.Default(), []string{"Ann", "Ben", "Cat", "Dan"})
		So(tally.ApplyBallot(st, 0, []string{"Ann", "Ben", "Cat"}, 3), ShouldBeNil)
		_, err := lifecycle.Reset(st, 5)
		So(err, ShouldBeNil)
		So(tally.ApplyBallot(st, 1, []string{"Ben", "Cat", "Dan"}, 3), ShouldBeNil)
		history := append([]model.Standing(nil), st.History[0]...)

		Convey("When Ben is removed", func() {
			_, err := roster.Remove(st, "Ben")

			Convey("Then Ben and his counters are gone but history keeps him", func() {
				So(err, ShouldBeNil)
				So(st.Names(), ShouldResemble, []string{"Ann", "Cat", "Dan"})
				So(st.TotalVotes(1), ShouldEqual, 2)
				So(st.History[0], ShouldResemble, history)
			})
		})

		Convey("When a name matches only case-insensitively", func() {
			_, err := roster.Remove(st, "ben")

			Convey("Then it is not found", func() {
				So(err, ShouldWrap, roster.ErrNotFound)
				So(st.Participants, ShouldHaveLength, 4)
			})
		})
	})
}
