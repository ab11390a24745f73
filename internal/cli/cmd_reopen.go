package cli

const reopenHelp = `  reopen <id>            Move an inprogress item back to ready`

func cmdReopen(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt reopen <id>")
		o.Println("")
		o.Println("Move an inprogress item back to ready.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	it, err := a.engine.Reopen(args[0])
	if err != nil {
		return err
	}

	o.Println("Reopened", it.ID)

	return nil
}
