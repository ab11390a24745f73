package cli

const markPaidHelp = `  mark-paid <id>...      Record payment sent for one or more items (client role)`

const confirmPaymentHelp = `  confirm-payment <id>...  Confirm receipt of payment and archive the items`

func cmdMarkPaid(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt --role client mark-paid <id>...")
		o.Println("")
		o.Println("Record that payment was sent for the given items. IDs that do")
		o.Println("not match any item are skipped.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	updated, err := a.engine.MarkPaid(args)
	if err != nil {
		return err
	}

	o.Printf("Marked %d item(s) as paid\n", updated)

	return nil
}

func cmdConfirmPayment(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt confirm-payment <id>...")
		o.Println("")
		o.Println("Confirm receipt of payment for the given items and archive them.")
		o.Println("IDs that do not match any item are skipped.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	updated, err := a.engine.ConfirmPayment(args)
	if err != nil {
		return err
	}

	o.Printf("Confirmed payment for %d item(s)\n", updated)

	return nil
}
