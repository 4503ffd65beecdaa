package config_test

import (
	"errors"
	"testing"

	"github.com/okian/alpine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.ExhibitionPrefix, convey.ShouldEqual, "Exhibition")
			convey.So(cfg.UploadQueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Origins(t *testing.T) {
	convey.Convey("Given a comma-separated origin list", t, func() {
		cfg := config.New()
		cfg.CORSOrigins = " https://a.example ,,https://b.example"

		convey.So(cfg.Origins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})

		convey.Convey("When the list is empty", func() {
			cfg.CORSOrigins = ""
			convey.So(cfg.Origins(), convey.ShouldBeEmpty)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one invalid setting", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero queue", func(c *config.Config) { c.UploadQueueSize = 0 }},
			{"negative dedupe", func(c *config.Config) { c.DedupeSize = -1 }},
			{"zero upload limit", func(c *config.Config) { c.MaxUploadBytes = 0 }},
			{"unknown log level", func(c *config.Config) { c.LogLevel = "verbose" }},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
