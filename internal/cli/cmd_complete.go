package cli

import (
	"wt/internal/workflow"

	flag "github.com/spf13/pflag"
)

const completeHelp = `  complete <id>          Complete an inprogress item and send it for approval
    --hours                Hours worked (required, > 0)
    --rate                 Hourly rate [default: configured rate]
    -m, --comment          Comment for the client (required)
    --attach               Attachment file (repeatable)`

func cmdComplete(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("complete", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt complete <id> --hours <h> -m <comment> [options]")
		o.Println("")
		o.Println("Complete an inprogress item: locks in hours and rate, computes the")
		o.Println("amount, and flags the item as awaiting client approval.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	hours := flagSet.Float64("hours", 0, "Hours worked (required)")
	rate := flagSet.Float64("rate", a.cfg.DefaultHourlyRate, "Hourly rate")
	comment := flagSet.StringP("comment", "m", "", "Comment for the client (required)")
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

	it, warnings, err := a.engine.Complete(flagSet.Arg(0), workflow.CompleteParams{
		Hours:   *hours,
		Rate:    *rate,
		Comment: *comment,
		Files:   readAttachments(o, *attach),
	})

	warnAll(o, warnings)

	if err != nil {
		return err
	}

	o.Printf("Completed %s (amount: %.2f), awaiting client approval\n", it.ID, *it.Amount)

	return nil
}
