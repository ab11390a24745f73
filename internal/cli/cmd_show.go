package cli

import (
	"fmt"
	"strings"
	"time"

	"wt/internal/item"
	"wt/internal/workflow"
)

const showHelp = `  show <id>              Show full item detail and conversation`

func cmdShow(o *IO, a *app, args []string) error {
	if hasHelpFlag(args) {
		o.Println("Usage: wt show <id>")
		o.Println("")
		o.Println("Show every field of an item plus its conversation in")
		o.Println("chronological order.")

		return nil
	}

	if len(args) == 0 {
		return errIDRequired
	}

	it, ok := a.engine.Find(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", workflow.ErrItemNotFound, args[0])
	}

	printDetail(o, &it)

	return nil
}

//nolint:funlen // linear field dump
func printDetail(o *IO, it *item.Item) {
	o.Println(it.Title)
	o.Println(strings.Repeat("=", len(it.Title)))
	o.Println("ID:        ", it.ID)
	o.Println("Type:      ", it.Type)
	o.Println("Status:    ", it.Status)
	o.Println("Client:    ", it.Client)
	o.Println("Project:   ", orDash(it.Project))
	o.Println("Billable:  ", it.Billable)
	o.Println("Archived:  ", it.Archived)
	o.Println("Created:   ", it.CreatedAt.Format(time.RFC3339))
	o.Println("Updated:   ", it.UpdatedAt.Format(time.RFC3339))

	if it.CompletedAt != nil {
		o.Println("Completed: ", it.CompletedAt.Format(time.RFC3339))
	}

	if it.Hours != nil {
		o.Printf("Hours:      %.2f\n", *it.Hours)
	}

	if it.RateAtCompletion != nil {
		o.Printf("Rate:       %.2f\n", *it.RateAtCompletion)
	}

	if it.Amount != nil {
		o.Printf("Amount:     %.2f\n", *it.Amount)
	}

	flags := approvalFlags(it)
	if len(flags) > 0 {
		o.Println("Flags:     ", strings.Join(flags, ", "))
	}

	if it.PaymentRequestedAt != nil {
		o.Println("Paid at:   ", it.PaymentRequestedAt.Format(time.RFC3339))
	}

	if it.PaymentConfirmedAt != nil {
		o.Println("Confirmed: ", it.PaymentConfirmedAt.Format(time.RFC3339))
	}

	if len(it.Attachments) > 0 {
		o.Println("")
		o.Println("Attachments:")

		for _, ref := range it.Attachments {
			o.Println("  -", ref)
		}
	}

	o.Println("")
	o.Println("Conversation:")

	for _, entry := range it.SortedHistory() {
		o.Printf("  [%s] %s: %s\n", entry.At.Format(time.RFC3339), entry.Actor, entry.Comment)

		for _, ref := range entry.Attachments {
			o.Println("      +", ref)
		}
	}
}

func approvalFlags(it *item.Item) []string {
	var flags []string

	if it.NeedsClientApproval {
		flags = append(flags, "needs client approval")
	}

	if it.ClientApproved {
		flags = append(flags, "client approved")
	}

	if it.ReviewRequested {
		flags = append(flags, "review requested")
	}

	if it.PaymentRequested {
		flags = append(flags, "payment requested")
	}

	if it.PaymentConfirmedByDev {
		flags = append(flags, "payment confirmed")
	}

	return flags
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
