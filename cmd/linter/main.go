// Command linter reports calls that terminate the process outside main.
package main

import (
	"github.com/MikhailRaia/pyth/cmd/linter/analyzer"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
