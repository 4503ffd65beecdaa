package types_test

import (
	"errors"
	"testing"

	types "github.com/okian/alpine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCategory(t *testing.T) {
	Convey("Given category strings from a URL", t, func() {
		Convey("When all parts are valid in mixed case", func() {
			cat, err := types.ParseCategory("Girls", "SKI", "hs")

			Convey("Then they normalise to the canonical values", func() {
				So(err, ShouldBeNil)
				So(cat.Gender, ShouldEqual, types.Girls)
				So(cat.Sport, ShouldEqual, types.Ski)
				So(cat.Division, ShouldEqual, types.HS)
				So(cat.Slug(), ShouldEqual, "girls_ski_hs")
				So(cat.Label(), ShouldEqual, "Girls Ski (HS)")
			})
		})

		Convey("When the division is open", func() {
			cat, err := types.ParseCategory("boys", "snowboard", "open")
			So(err, ShouldBeNil)
			So(cat.Division, ShouldEqual, types.Open)
			So(cat.Division.Slug(), ShouldEqual, "open")
		})

		Convey("When any part is unknown", func() {
			for _, parts := range [][3]string{
				{"men", "ski", "hs"},
				{"boys", "luge", "hs"},
				{"boys", "ski", "team"},
			} {
				_, err := types.ParseCategory(parts[0], parts[1], parts[2])
				So(errors.Is(err, types.ErrInvalidCategory), ShouldBeTrue)
			}
		})
	})
}

func TestAllCategories(t *testing.T) {
	Convey("Given the category vocabulary", t, func() {
		all := types.AllCategories()

		Convey("Then every gender, sport and division combination appears once", func() {
			So(all, ShouldHaveLength, 8)
			seen := map[string]bool{}
			for _, c := range all {
				So(seen[c.Slug()], ShouldBeFalse)
				seen[c.Slug()] = true
			}
		})
	})
}
