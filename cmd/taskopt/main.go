// Package main is the development task file of the taskopt module.
// Its sessions only report what they would do; they double as a working
// example of declaring typed session options.
package main

import (
	"taskopt/pkg/taskcli"
)

func main() {
	taskcli.Main(buildGroup())
}
