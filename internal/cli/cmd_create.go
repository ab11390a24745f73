package cli

import (
	"wt/internal/item"
	"wt/internal/workflow"

	flag "github.com/spf13/pflag"
)

const createHelp = `  create <title>         Create a task/defect, prints ID
    -t, --type             Type (task|defect) [default: task]
    --client               Client name
    --project              Project name
    --billable             Billable [default: true]
    --attach               Attachment file (repeatable)`

func cmdCreate(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt create <title> [options]")
		o.Println("")
		o.Println("Create a new task or defect. Prints the item ID on success.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	itemType := flagSet.StringP("type", "t", item.TypeTask, "Type: task|defect")
	client := flagSet.String("client", "", "Client name")
	project := flagSet.String("project", "", "Project name")
	billable := flagSet.Bool("billable", true, "Billable")
	attach := flagSet.StringArray("attach", nil, "Attachment file (repeatable)")

	if hasHelpFlag(args) {
		flagSet.Usage()

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	title := ""
	if flagSet.NArg() > 0 {
		title = flagSet.Arg(0)
	}

	// The client role creates items under its own name unless told otherwise.
	clientName := *client
	if a.role == RoleClient && !flagSet.Changed("client") {
		clientName = "Client"
	}

	created, warnings, err := a.engine.Create(workflow.CreateParams{
		Title:    title,
		Type:     *itemType,
		Client:   clientName,
		Project:  *project,
		Billable: *billable,
		Actor:    a.actor(),
		Files:    readAttachments(o, *attach),
	})

	warnAll(o, warnings)

	if err != nil {
		return err
	}

	o.Println(created.ID)

	return nil
}
