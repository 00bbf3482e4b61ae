package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"vdt.ai/dashboard/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
