package config

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given default configuration", t, func() {
		cfg := New()

		convey.Convey("Then it should carry the documented defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ScoreMin, convey.ShouldEqual, 0)
			convey.So(cfg.ScoreMax, convey.ShouldEqual, 700)
			convey.So(cfg.TopNMin, convey.ShouldEqual, 3)
			convey.So(cfg.TopNMax, convey.ShouldEqual, 20)
			convey.So(cfg.TopNDefault, convey.ShouldEqual, 10)
			convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 720)
			convey.So(cfg.CertainProbability, convey.ShouldEqual, 99.99)
			convey.So(cfg.ImpossibleProbability, convey.ShouldEqual, 0.01)
			convey.So(cfg.AuthEnabled(), convey.ShouldBeFalse)
		})

		convey.Convey("Then it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"inverted score bounds", func(c *Config) { c.ScoreMin, c.ScoreMax = 700, 0 }},
		{"zero top_n_min", func(c *Config) { c.TopNMin = 0 }},
		{"default above max", func(c *Config) { c.TopNDefault = 25 }},
		{"default below min", func(c *Config) { c.TopNDefault = 2 }},
		{"email without hash", func(c *Config) { c.AuthEmail = "admin@example.com" }},
		{"zero session ttl", func(c *Config) { c.SessionTTLMinutes = 0 }},
		{"zero login rate", func(c *Config) { c.LoginRatePerMinute = 0 }},
		{"negative threshold", func(c *Config) { c.ZeroVarianceThreshold = -1 }},
		{"inverted cutoffs", func(c *Config) { c.CertainProbability, c.ImpossibleProbability = 1, 2 }},
		{"certain above 100", func(c *Config) { c.CertainProbability = 101 }},
	}

	convey.Convey("Given invalid configurations", t, func() {
		for _, tc := range cases {
			cfg := New()
			tc.mutate(cfg)
			convey.Convey("Then "+tc.name+" should be rejected", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given auth with a password hash", t, func() {
		cfg := New()
		cfg.AuthEmail = "admin@example.com"
		cfg.AuthPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"

		convey.Convey("Then auth is enabled and the config is valid", func() {
			convey.So(cfg.AuthEnabled(), convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
