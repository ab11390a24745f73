package cli

const approveHelp = `  approve <id>           Approve a completed item (client role)`

func cmdApprove(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt --role client approve <id>")
		o.Println("")
		o.Println("Record the client's sign-off on a completed item.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	it, err := a.engine.Approve(args[0])
	if err != nil {
		return err
	}

	o.Println("Approved", it.ID)

	return nil
}
