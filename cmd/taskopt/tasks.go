package main

import (
	"fmt"
	"strings"

	"taskopt/pkg/taskopt"
)

// pathsField is shared by the check sessions; it must be declared the same
// way everywhere it appears.
var pathsField = taskopt.Field{
	Name:    "paths",
	Kind:    taskopt.KindString,
	List:    true,
	Default: []string{"./..."},
	Option:  &taskopt.Option{Help: "Packages to check"},
}

func buildGroup() *taskopt.Group {
	group := taskopt.New(
		taskopt.WithName("taskopt"),
		taskopt.WithAutoTag(taskopt.TagSiblings),
	)

	group.MustAddSetup(setupAll, []taskopt.Field{
		{Name: "verbose", Kind: taskopt.KindBool, Option: &taskopt.Option{
			Flags: []string{"--verbose", "-v"},
			Help:  "Log every step",
		}},
	}, "")

	group.MustAddSetup(setupChecks, []taskopt.Field{
		{Name: "go_version", Kind: taskopt.KindString, Default: "1.24", Option: &taskopt.Option{
			Choices: []string{"1.23", "1.24"},
			Help:    "Go toolchain the checks run with",
		}},
	}, "check")

	group.MustAddTask("check_tests", checkTests, []taskopt.Field{
		pathsField,
		{Name: "no_cov", Kind: taskopt.KindBool, Option: &taskopt.Option{Help: "Skip coverage"}},
		{Name: "run", Kind: taskopt.KindString, Default: "", Option: &taskopt.Option{
			Metavar: "REGEX",
			Help:    "Only run tests matching REGEX",
		}},
	})

	group.MustAddTask("check_format", checkFormat, []taskopt.Field{pathsField})

	group.MustAddTask("check_lint", checkLint, []taskopt.Field{
		pathsField,
		{Name: "fix", Kind: taskopt.KindBool, Option: &taskopt.Option{Help: "Apply suggested fixes"}},
	})

	group.MustAddTask("fix_format", fixFormat, []taskopt.Field{pathsField}, taskopt.WithTags("fix"))

	group.MustAddTask("log_nums", logNums, []taskopt.Field{
		{Name: "num", Kind: taskopt.KindInt},
		{Name: "mult", Kind: taskopt.KindInt, Default: 1, Option: &taskopt.Option{Help: "Multiplier"}},
	}, taskopt.Parametrize("num", 1, 2, 3))

	group.MustAddTask("sum", sum, []taskopt.Field{
		{Name: "nums", Kind: taskopt.KindInt, List: true, Default: []int{}, Option: &taskopt.Option{
			Flags: []string{"--nums", "-n"},
			Help:  "Numbers to add",
		}},
	})

	return group
}

func setupAll(s taskopt.Session, args *taskopt.Args) error {
	if args.Bool("verbose") {
		s.Log("verbose output enabled")
	}
	return nil
}

func setupChecks(s taskopt.Session, args *taskopt.Args) error {
	s.Log("using go toolchain", "version", args.String("go_version"))
	return nil
}

func checkTests(s taskopt.Session, args *taskopt.Args) error {
	cmd := []string{"go", "test"}
	if !args.Bool("no_cov") {
		cmd = append(cmd, "-coverprofile=coverage.out")
	} else {
		s.Log("coverage won't be checked")
	}
	if run := args.String("run"); run != "" {
		cmd = append(cmd, "-run", run)
	}
	cmd = append(cmd, args.Strings("paths")...)
	s.Log("would run", "cmd", strings.Join(cmd, " "))
	return nil
}

func checkFormat(s taskopt.Session, args *taskopt.Args) error {
	s.Log("would run", "cmd", "gofmt -l "+strings.Join(args.Strings("paths"), " "))
	return nil
}

func checkLint(s taskopt.Session, args *taskopt.Args) error {
	cmd := "go vet"
	if args.Bool("fix") {
		cmd = "go fix"
	}
	s.Log("would run", "cmd", cmd+" "+strings.Join(args.Strings("paths"), " "))
	return nil
}

func fixFormat(s taskopt.Session, args *taskopt.Args) error {
	s.Log("would run", "cmd", "gofmt -w "+strings.Join(args.Strings("paths"), " "))
	return nil
}

func logNums(s taskopt.Session, args *taskopt.Args) error {
	s.Log(fmt.Sprint(args.Int("num") * args.Int("mult")))
	return nil
}

func sum(s taskopt.Session, args *taskopt.Args) error {
	total := 0
	for _, n := range args.Ints("nums") {
		total += n
	}
	s.Log(fmt.Sprint(total))
	return nil
}
