package cli

const deleteHelp = `  delete <id>            Permanently remove an item`

func cmdDelete(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt delete <id>")
		o.Println("")
		o.Println("Permanently remove an item from the data file. Attachment files")
		o.Println("on disk are left in place.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	err := a.engine.Delete(args[0])
	if err != nil {
		return err
	}

	o.Println("Deleted", args[0])

	return nil
}
