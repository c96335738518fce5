// The summary tool aggregates the output files of interference runs into a
// performance table and a relative loss table. Dataset problems (missing
// contention phases, overlapping jobs) are warnings: a partial report is
// still produced.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/glennklockwood/iopup/pkg/analysis"
	"github.com/glennklockwood/iopup/pkg/conf"
	"github.com/glennklockwood/iopup/pkg/utils/errutil"
)

var inputFlag = conf.NewSliceFlag(
	"input", "Directories or glob patterns to scan for interference outputs", ".")

func main() {
	conf.SetAppName("storage-interference-summary")
	conf.SetHelp("Summarizes interference run outputs into performance and loss tables.")

	errutil.Check(conf.ParseFlags())
	logrus.SetLevel(conf.LogLevel())

	records, err := analysis.LoadDatasets(inputFlag.Value()...)
	errutil.Check(err)

	for _, warning := range analysis.Validate(records) {
		logrus.Warn(warning)
	}

	performance := analysis.Performance(records)
	loss := analysis.Loss(performance)

	rule := strings.Repeat("-", 80)
	fmt.Println(rule)
	fmt.Println("Performance")
	fmt.Println(rule)
	analysis.RenderPerformance(os.Stdout, performance)
	fmt.Println(rule)
	fmt.Println("Performance Loss (%)")
	fmt.Println(rule)
	analysis.RenderLoss(os.Stdout, loss)
}
