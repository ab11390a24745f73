package cli

import (
	"errors"

	flag "github.com/spf13/pflag"
)

const commentHelp = `  comment <id>           Add a comment as the active role
    -m, --comment          Comment text
    --attach               Attachment file (repeatable)`

var errNothingToAdd = errors.New("nothing to add (use -m and/or --attach)")

func cmdComment(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("comment", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt comment <id> -m <comment> [options]")
		o.Println("")
		o.Println("Append a comment to the item's conversation as the active role.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	comment := flagSet.StringP("comment", "m", "", "Comment text")
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

	files := readAttachments(o, *attach)
	if *comment == "" && len(files) == 0 {
		return errNothingToAdd
	}

	it, warnings, err := a.engine.Comment(flagSet.Arg(0), a.actor(), *comment, files)

	warnAll(o, warnings)

	if err != nil {
		return err
	}

	o.Println("Commented on", it.ID)

	return nil
}
