package cli

import (
	"wt/internal/workflow"

	flag "github.com/spf13/pflag"
)

const editHelp = `  edit <id>              Edit item metadata
    --title                New title
    --client               New client name
    --project              New project name
    --billable             Set billable flag (true|false)`

func cmdEdit(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("edit", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt edit <id> [options]")
		o.Println("")
		o.Println("Edit item metadata. Only the fields passed as flags change;")
		o.Println("status, billing, and history are untouched.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	title := flagSet.String("title", "", "New title")
	client := flagSet.String("client", "", "New client name")
	project := flagSet.String("project", "", "New project name")
	billable := flagSet.Bool("billable", false, "Set billable flag")

	if hasHelpFlag(args) {
		flagSet.Usage()

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	if flagSet.NArg() == 0 {
		return errIDRequired
	}

	var meta workflow.Metadata

	if flagSet.Changed("title") {
		meta.Title = title
	}

	if flagSet.Changed("client") {
		meta.Client = client
	}

	if flagSet.Changed("project") {
		meta.Project = project
	}

	if flagSet.Changed("billable") {
		meta.Billable = billable
	}

	it, err := a.engine.EditMetadata(flagSet.Arg(0), meta)
	if err != nil {
		return err
	}

	o.Println("Updated", it.ID)

	return nil
}
