package lifecycle_test

import (
	"testing"

	"github.com/okian/elimvote/internal/domain/lifecycle"
	"github.com/okian/elimvote/internal/domain/model"
	"github.com/okian/elimvote/internal/domain/round"
	"github.com/okian/elimvote/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

var roster = []string{"A", "B", "C", "D", "E", "F"}

func publishedImpliesClosed(st *model.State) bool {
	for _, s := range st.Status {
		if s.Published && !s.Closed {
			return false
		}
	}
	return true
}

func TestCloseAndPublish(t *testing.T) {
	Convey("Given a fresh state with one ballot on day1", t, func() {
		st := model.NewState(round.Default(), roster)
		So(tally.ApplyBallot(st, 0, []string{"A", "B", "C"}, 3), ShouldBeNil)

		Convey("When publishing while voting is open", func() {
			before := st.Clone()
			_, err := lifecycle.Publish(st, 0)

			Convey("Then it fails with not closed and nothing changes", func() {
				So(err, ShouldWrap, lifecycle.ErrNotClosed)
				So(st, ShouldResemble, before)
			})
		})

		Convey("When voting is closed", func() {
			standings := tally.Standings(st, 0, 5)
			ev, err := lifecycle.CloseVoting(st, 0)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, model.VotingClosed)

			Convey("Then new ballots are refused and standings are unaffected", func() {
				So(lifecycle.CheckBallot(st, false), ShouldWrap, lifecycle.ErrRoundClosed)
				So(tally.Standings(st, 0, 5), ShouldResemble, standings)
			})

			Convey("Then closing again fails", func() {
				_, err := lifecycle.CloseVoting(st, 0)
				So(err, ShouldWrap, lifecycle.ErrAlreadyClosed)
			})

			Convey("Then voters cannot see unpublished standings but admins can", func() {
				So(lifecycle.Visible(st, 0, false), ShouldBeFalse)
				So(lifecycle.Visible(st, 0, true), ShouldBeTrue)
				So(lifecycle.CheckVisible(st, 0, false), ShouldWrap, lifecycle.ErrNotPublished)
			})

			Convey("And results are published", func() {
				_, err := lifecycle.Publish(st, 0)
				So(err, ShouldBeNil)

				Convey("Then the round is published, closed and visible to voters", func() {
					So(st.Status[0], ShouldResemble, round.Status{Closed: true, Published: true})
					So(lifecycle.Visible(st, 0, false), ShouldBeTrue)
					So(publishedImpliesClosed(st), ShouldBeTrue)
				})

				Convey("Then publishing again is a no-op success", func() {
					ev, err := lifecycle.Publish(st, 0)
					So(err, ShouldBeNil)
					So(ev.Message, ShouldContainSubstring, "already")
				})

				Convey("Then closing a published round fails", func() {
					_, err := lifecycle.CloseVoting(st, 0)
					So(err, ShouldWrap, lifecycle.ErrAlreadyClosed)
				})
			})
		})

		Convey("When an unknown round is addressed", func() {
			_, err := lifecycle.CloseVoting(st, 9)

			Convey("Then it fails", func() {
				So(err, ShouldWrap, lifecycle.ErrUnknownRound)
			})
		})
	})
}

func TestCheckBallot(t *testing.T) {
	Convey("Given an open round", t, func() {
		st := model.NewState(round.Default(), roster)

		Convey("Then a first ballot passes and a repeat is refused", func() {
			So(lifecycle.CheckBallot(st, false), ShouldBeNil)
			So(lifecycle.CheckBallot(st, true), ShouldWrap, lifecycle.ErrAlreadyVoted)
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Given day1 published with votes", t, func() {
		st := model.NewState(round.Default(), roster)
		So(tally.ApplyBallot(st, 0, []string{"A", "B", "C"}, 3), ShouldBeNil)
		So(tally.ApplyBallot(st, 0, []string{"B", "C", "D"}, 3), ShouldBeNil)
		_, _ = lifecycle.CloseVoting(st, 0)
		_, _ = lifecycle.Publish(st, 0)
		top := tally.Standings(st, 0, 5)

		Convey("When the round is reset", func() {
			ev, err := lifecycle.Reset(st, 5)
			So(err, ShouldBeNil)

			Convey("Then the top five are archived", func() {
				So(st.History[0], ShouldResemble, top)
				So(ev.Archived, ShouldResemble, top)
				So(st.History[0][0], ShouldResemble, model.Standing{Name: "B", Votes: 2})
			})

			Convey("Then day1 is closed and published and day2 is open and current", func() {
				So(st.Status[0], ShouldResemble, round.Status{Closed: true, Published: true})
				So(st.Current, ShouldEqual, round.ID(1))
				So(st.Status[1], ShouldResemble, round.Status{})
				So(ev.NextRound, ShouldEqual, round.ID(1))
			})

			Convey("Then every day2 counter is zero and day1 counters are kept", func() {
				for _, p := range st.Participants {
					v, ok := p.Votes[1]
					So(ok, ShouldBeTrue)
					So(v, ShouldEqual, 0)
				}
				So(st.TotalVotes(0), ShouldEqual, 6)
			})

			Convey("Then all voted markers are invalidated", func() {
				So(ev.Markers, ShouldEqual, model.MarkersAll)
				So(st.Validate(), ShouldBeNil)
			})

			Convey("And day1 is then wiped", func() {
				ev, err := lifecycle.Wipe(st, 0)
				So(err, ShouldBeNil)

				Convey("Then day1 is zeroed, unarchived and reopened while day2 stays current", func() {
					So(st.TotalVotes(0), ShouldEqual, 0)
					_, archived := st.History[0]
					So(archived, ShouldBeFalse)
					So(st.Status[0], ShouldResemble, round.Status{})
					So(st.Current, ShouldEqual, round.ID(1))
					So(ev.Markers, ShouldEqual, model.MarkersOfRound)
					So(ev.Round, ShouldEqual, round.ID(0))
				})
			})
		})
	})

	Convey("Given an open round that was never closed", t, func() {
		st := model.NewState(round.Default(), roster)

		Convey("When it is reset", func() {
			_, err := lifecycle.Reset(st, 5)
			So(err, ShouldBeNil)

			Convey("Then archiving counts as closing and publishing", func() {
				So(st.Status[0], ShouldResemble, round.Status{Closed: true, Published: true})
				So(publishedImpliesClosed(st), ShouldBeTrue)
			})
		})
	})

	Convey("Given the last round is current", t, func() {
		st := model.NewState(round.Default(), roster)
		_, _ = lifecycle.Reset(st, 5)
		_, _ = lifecycle.Reset(st, 5)
		So(st.Current, ShouldEqual, st.Rounds.Last())
		So(tally.ApplyBallot(st, 2, []string{"D", "E", "F"}, 3), ShouldBeNil)

		Convey("When it is reset", func() {
			ev, err := lifecycle.Reset(st, 5)
			So(err, ShouldBeNil)

			Convey("Then it recycles in place", func() {
				So(st.Current, ShouldEqual, st.Rounds.Last())
				So(ev.NextRound, ShouldEqual, st.Rounds.Last())
				So(st.TotalVotes(2), ShouldEqual, 0)
				So(st.History[2][0].Votes, ShouldEqual, 1)
				So(st.Status[2], ShouldResemble, round.Status{Closed: true, Published: true})
			})
		})
	})
}
