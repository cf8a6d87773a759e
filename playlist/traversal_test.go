package playlist

import (
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func nextURI(t *Traversal) string {
	return t.Next(nil).OrElse("")
}

func TestParseMode(t *testing.T) {
	Convey("ParseMode", t, func() {
		for s, want := range map[string]Mode{
			"normal":    ModeNormal,
			"Randomize": ModeRandomize,
			"random":    ModeRandom,
			"":          ModeNormal,
		} {
			mode, err := ParseMode(s)
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, want)
		}

		_, err := ParseMode("zigzag")
		So(err, ShouldNotBeNil)
	})
}

func TestTraversalNormal(t *testing.T) {
	Convey("Normal traversal", t, func() {
		tr := NewTraversal(ModeNormal)
		tr.Replace([]string{"a", "b", "c"})

		Convey("Yields indices in order and wraps", func() {
			So(nextURI(tr), ShouldEqual, "a")
			So(nextURI(tr), ShouldEqual, "b")
			So(nextURI(tr), ShouldEqual, "c")
			So(nextURI(tr), ShouldEqual, "a")
			So(tr.Position().MustGet(), ShouldEqual, 0)
		})

		Convey("Reports the round exactly at the wrap", func() {
			rounds := make([]bool, 0, 4)
			for i := 0; i < 4; i++ {
				tr.Next(func(round bool) { rounds = append(rounds, round) })
			}
			So(rounds, ShouldResemble, []bool{false, false, false, true})
		})

		Convey("Peek lists the next entries, wrapping", func() {
			nextURI(tr) // at "a"
			So(tr.Peek(4), ShouldResemble, []string{"b", "c", "a", "b"})
		})

		Convey("Replace keeps the position while still in bounds", func() {
			nextURI(tr)
			nextURI(tr) // at index 1
			tr.Replace([]string{"x", "y", "z"})
			So(tr.Position().MustGet(), ShouldEqual, 1)
			So(nextURI(tr), ShouldEqual, "z")
		})

		Convey("Replace resets the position when out of bounds", func() {
			nextURI(tr)
			nextURI(tr)
			nextURI(tr) // at index 2
			tr.Replace([]string{"x"})
			So(tr.Position().IsAbsent(), ShouldBeTrue)
			So(nextURI(tr), ShouldEqual, "x")
		})
	})
}

func TestTraversalRandomize(t *testing.T) {
	Convey("Randomize traversal", t, func() {
		elements := []string{"a", "b", "c", "d", "e"}
		tr := NewTraversal(ModeRandomize)
		tr.Replace(append([]string(nil), elements...))

		Convey("One full pass visits every element exactly once", func() {
			seen := make(map[string]int)
			for range elements {
				seen[nextURI(tr)]++
			}
			So(seen, ShouldHaveLength, len(elements))
			for _, count := range seen {
				So(count, ShouldEqual, 1)
			}
		})

		Convey("A reshuffle permutes the same multiset", func() {
			for range elements {
				nextURI(tr)
			}
			nextURI(tr) // wrap, reshuffles

			after := tr.Snapshot()
			sort.Strings(after)
			So(after, ShouldResemble, []string{"a", "b", "c", "d", "e"})
		})

		Convey("Peek never crosses into the undetermined next pass", func() {
			nextURI(tr)
			So(len(tr.Peek(100)), ShouldEqual, len(elements)-1)
		})

		Convey("Replace always restarts traversal", func() {
			nextURI(tr)
			tr.Replace(append([]string(nil), elements...))
			So(tr.Position().IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestTraversalRandom(t *testing.T) {
	Convey("Random traversal", t, func() {
		tr := NewTraversal(ModeRandom)
		tr.Replace([]string{"a", "b", "c"})

		Convey("Draws are always in range and never complete a round", func() {
			valid := map[string]bool{"a": true, "b": true, "c": true}
			for i := 0; i < 50; i++ {
				var round bool
				uri := tr.Next(func(r bool) { round = r })
				So(valid[uri.MustGet()], ShouldBeTrue)
				So(round, ShouldBeFalse)
			}
		})

		Convey("Lookahead is undefined", func() {
			So(tr.Peek(10), ShouldBeEmpty)
		})
	})
}

func TestTraversalEmpty(t *testing.T) {
	Convey("Empty traversal yields nothing", t, func() {
		for _, mode := range []Mode{ModeNormal, ModeRandomize, ModeRandom} {
			tr := NewTraversal(mode)
			So(tr.Next(nil).IsAbsent(), ShouldBeTrue)
			So(tr.Peek(3), ShouldBeEmpty)
		}
	})
}
