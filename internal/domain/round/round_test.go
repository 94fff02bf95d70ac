package round_test

import (
	"testing"

	"github.com/okian/elimvote/internal/domain/round"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSequence(t *testing.T) {
	Convey("Given the default sequence", t, func() {
		seq := round.Default()

		Convey("Then it has three ordered day keys", func() {
			So(seq.Len(), ShouldEqual, 3)
			So(seq.Keys(), ShouldResemble, []string{"day1", "day2", "day3"})
			So(seq.Key(seq.First()), ShouldEqual, "day1")
			So(seq.Key(seq.Last()), ShouldEqual, "day3")
		})

		Convey("Then Next advances until the last round", func() {
			next, ok := seq.Next(seq.First())
			So(ok, ShouldBeTrue)
			So(seq.Key(next), ShouldEqual, "day2")

			_, ok = seq.Next(seq.Last())
			So(ok, ShouldBeFalse)
		})

		Convey("Then Parse resolves keys and rejects unknown ones", func() {
			id, err := seq.Parse("day2")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, round.ID(1))

			_, err = seq.Parse("day9")
			So(err, ShouldWrap, round.ErrUnknownRound)
		})

		Convey("Then Through lists the opened prefix", func() {
			So(seq.Through(1), ShouldResemble, []round.ID{0, 1})
			So(seq.Through(7), ShouldBeNil)
		})
	})

	Convey("Given custom keys", t, func() {
		Convey("When keys are duplicated", func() {
			_, err := round.NewSequence("heat", "final", "heat")

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, round.ErrInvalidSequence)
			})
		})

		Convey("When no keys are given", func() {
			_, err := round.NewSequence()

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, round.ErrInvalidSequence)
			})
		})

		Convey("When a single round is configured", func() {
			seq, err := round.NewSequence("final")
			So(err, ShouldBeNil)

			Convey("Then first and last coincide", func() {
				So(seq.First(), ShouldEqual, seq.Last())
			})
		})
	})
}

func TestStatus(t *testing.T) {
	Convey("Given round status flags", t, func() {
		So(round.Status{}.Phase(), ShouldEqual, round.Open)
		So(round.Status{Closed: true}.Phase(), ShouldEqual, round.Closed)
		So(round.Status{Closed: true, Published: true}.Phase(), ShouldEqual, round.Published)

		Convey("Then published without closed is invalid and normalizes", func() {
			bad := round.Status{Published: true}
			So(bad.Valid(), ShouldBeFalse)
			So(bad.Normalized(), ShouldResemble, round.Status{Closed: true, Published: true})
		})
	})
}
