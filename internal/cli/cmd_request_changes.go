package cli

import (
	flag "github.com/spf13/pflag"
)

const requestChangesHelp = `  request-changes <id>   Send a completed item back to the developer (client role)
    -m, --comment          Required feedback for the developer
    --attach               Attachment file (repeatable)`

func cmdRequestChanges(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("request-changes", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt --role client request-changes <id> -m <comment> [options]")
		o.Println("")
		o.Println("Bounce a completed item back to the developer with required feedback.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	comment := flagSet.StringP("comment", "m", "", "Feedback for the developer (required)")
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

	it, warnings, err := a.engine.RequestChanges(flagSet.Arg(0), *comment, readAttachments(o, *attach))

	warnAll(o, warnings)

	if err != nil {
		return err
	}

	o.Println("Sent back to developer:", it.ID)

	return nil
}
