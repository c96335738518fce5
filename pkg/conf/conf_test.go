package conf

import (
	"testing"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

// Flag registration is global; register test flags once.
var (
	stringFlag = NewStringFlag("test_string", "a string flag", "defaultstring")
	intFlag    = NewIntFlag("test_int", "an int flag", 23)
	boolFlag   = NewBoolFlag("test_bool", "a bool flag", false)
	sliceFlag  = NewSliceFlag("test_slice", "a slice flag", "one", "two")
)

func clearTestEnv() {
	stringFlag.clear()
	intFlag.clear()
	boolFlag.clear()
	sliceFlag.clear()
	logLevelFlag.clear()
}

func TestConf(t *testing.T) {
	Convey("While using conf pkg", t, func() {
		clearTestEnv()

		Convey("Application name and help can be set", func() {
			SetAppName("iopup-test")
			SetHelp("Test help")
			So(AppName(), ShouldEqual, "iopup-test")
			So(app.Help, ShouldEqual, "Test help")
		})

		Convey("The default log level is info", func() {
			So(ParseEnv(), ShouldBeNil)
			So(LogLevel(), ShouldEqual, logrus.InfoLevel)
		})

		Convey("The log level can be fetched from the environment", func() {
			t.Setenv(logLevelFlag.envName(), "debug")
			So(ParseEnv(), ShouldBeNil)
			So(LogLevel(), ShouldEqual, logrus.DebugLevel)
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("Given a set of registered flags", t, func() {
		clearTestEnv()

		Convey("Before parsing, defaults are returned", func() {
			isEnvParsed = false
			So(stringFlag.Value(), ShouldEqual, "defaultstring")
			So(intFlag.Value(), ShouldEqual, 23)
			So(boolFlag.Value(), ShouldBeFalse)
			So(sliceFlag.Value(), ShouldResemble, []string{"one", "two"})
		})

		Convey("After parsing, environment variables take precedence", func() {
			t.Setenv("IOPUP_TEST_STRING", "customstring")
			t.Setenv("IOPUP_TEST_INT", "42")
			t.Setenv("IOPUP_TEST_BOOL", "true")
			t.Setenv("IOPUP_TEST_SLICE", "a,b,c")

			So(ParseEnv(), ShouldBeNil)

			So(stringFlag.Value(), ShouldEqual, "customstring")
			So(intFlag.Value(), ShouldEqual, 42)
			So(boolFlag.Value(), ShouldBeTrue)
			So(sliceFlag.Value(), ShouldResemble, []string{"a", "b", "c"})

			Convey("And the flag map reflects the parsed values", func() {
				flags := GetFlags()
				So(flags["test_string"], ShouldEqual, "customstring")
				So(flags["test_int"], ShouldEqual, "42")
			})

			Convey("And the config dump renders exportable assignments", func() {
				dump := DumpConfig()
				So(dump, ShouldContainSubstring, "set -o allexport")
				So(dump, ShouldContainSubstring, "IOPUP_TEST_STRING=customstring")
				So(dump, ShouldContainSubstring, "# a string flag")
			})
		})

		Convey("Defining the same flag twice panics", func() {
			So(func() { NewStringFlag("test_string", "duplicate", "x") }, ShouldPanic)
		})
	})
}
