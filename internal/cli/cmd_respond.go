package cli

import (
	"wt/internal/workflow"

	flag "github.com/spf13/pflag"
)

const respondHelp = `  respond <id>           Answer a review request and resubmit for approval
    -m, --comment          Response to the client (required)
    --hours                Updated hours (optional)
    --rate                 Updated rate (optional)
    --attach               Attachment file (repeatable)`

func cmdRespond(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("respond", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt respond <id> -m <comment> [options]")
		o.Println("")
		o.Println("Answer a client review request: appends the response, optionally")
		o.Println("updates hours/rate, and resubmits the item for approval.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	comment := flagSet.StringP("comment", "m", "", "Response to the client (required)")
	hours := flagSet.Float64("hours", 0, "Updated hours")
	rate := flagSet.Float64("rate", 0, "Updated rate")
	attach := flagSet.StringArray("attach", nil, "Attachment file (repeatable)")

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

	params := workflow.RespondParams{
		Comment: *comment,
		Files:   readAttachments(o, *attach),
	}

	if flagSet.Changed("hours") {
		params.Hours = hours
	}

	if flagSet.Changed("rate") {
		params.Rate = rate
	}

	it, warnings, err := a.engine.RespondToChanges(flagSet.Arg(0), params)

	warnAll(o, warnings)

	if err != nil {
		return err
	}

	o.Println("Resubmitted for client approval:", it.ID)

	return nil
}
