package cli

const startHelp = `  start <id>             Move a ready item to inprogress`

func cmdStart(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt start <id>")
		o.Println("")
		o.Println("Move a ready item to inprogress. Only works on ready items.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	it, err := a.engine.Start(args[0])
	if err != nil {
		return err
	}

	o.Println("Started", it.ID)

	return nil
}
