package playlist

import (
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReloadPolicy(t *testing.T) {
	Convey("Reload policy", t, func() {
		Convey("Amount zero never reloads", func() {
			p := lo.Must(NewReloadPolicy(0, "rounds"))
			for i := 0; i < 10; i++ {
				So(p.Evaluate(true), ShouldBeFalse)
			}
		})

		Convey("Negative amounts and unknown units are rejected", func() {
			_, err := NewReloadPolicy(-1, "rounds")
			So(err, ShouldNotBeNil)
			_, err = NewReloadPolicy(3, "fortnights")
			So(err, ShouldNotBeNil)
		})

		Convey("Round-based reloads fire once per n completed rounds", func() {
			p := lo.Must(NewReloadPolicy(2, "rounds"))

			// Steps without a round boundary never count.
			So(p.Evaluate(false), ShouldBeFalse)
			So(p.Evaluate(false), ShouldBeFalse)

			So(p.Evaluate(true), ShouldBeFalse)
			So(p.Evaluate(true), ShouldBeTrue)

			p.Reset()
			So(p.Evaluate(true), ShouldBeFalse)
			So(p.Evaluate(true), ShouldBeTrue)
		})

		Convey("Time-based reloads fire at or after the configured gap", func() {
			p := lo.Must(NewReloadPolicy(5, "seconds"))

			now := time.Unix(2000, 0)
			p.now = func() time.Time { return now }
			p.Reset()

			So(p.Evaluate(false), ShouldBeFalse)
			now = now.Add(4 * time.Second)
			So(p.Evaluate(false), ShouldBeFalse)
			now = now.Add(time.Second)
			So(p.Evaluate(false), ShouldBeTrue)

			Convey("Reset rearms the clock", func() {
				p.Reset()
				So(p.Evaluate(false), ShouldBeFalse)
				now = now.Add(5 * time.Second)
				So(p.Evaluate(true), ShouldBeTrue)
			})
		})
	})
}
