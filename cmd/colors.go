package cmd

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorHeading = color.New(color.Bold).SprintFunc()
)

// palette decorates the text report. The console uses colours; exported
// text files use plainPalette.
type palette struct {
	heading func(a ...interface{}) string
	finding func(a ...interface{}) string
	header  func(a ...interface{}) string
	ok      func(a ...interface{}) string
	note    func(a ...interface{}) string
}

func consolePalette() palette {
	return palette{
		heading: colorHeading,
		finding: colorError,
		header:  colorInfo,
		ok:      colorSuccess,
		note:    colorWarn,
	}
}

func plainPalette() palette {
	return palette{
		heading: fmt.Sprint,
		finding: fmt.Sprint,
		header:  fmt.Sprint,
		ok:      fmt.Sprint,
		note:    fmt.Sprint,
	}
}
