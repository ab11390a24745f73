package cli

import (
	"fmt"
	"text/tabwriter"

	"wt/internal/item"

	flag "github.com/spf13/pflag"
)

const lsHelp = `  ls                     List items grouped by board column
    --status               Only show one status (ready|inprogress|completed)
    --all                  Include archived items
    --archived             Only show archived items`

const (
	tabMinWidth = 2
	tabPadding  = 2
)

func cmdLs(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("ls", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt ls [options]")
		o.Println("")
		o.Println("List items. By default archived items are hidden and items are")
		o.Println("grouped ready, inprogress, completed.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	status := flagSet.String("status", "", "Only show one status")
	all := flagSet.Bool("all", false, "Include archived items")
	archivedOnly := flagSet.Bool("archived", false, "Only show archived items")

	if hasHelpFlag(args) {
		flagSet.Usage()

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	if *status != "" && !item.IsValidStatus(*status) {
		return fmt.Errorf("unknown status %q (want ready, inprogress, or completed)", *status)
	}

	items := a.engine.Items()
	shown := 0

	writer := tabwriter.NewWriter(o.out, tabMinWidth, 0, tabPadding, ' ', 0)

	for _, it := range items {
		if !lsMatch(&it, *status, *all, *archivedOnly) {
			continue
		}

		printRow(writer, &it)

		shown++
	}

	_ = writer.Flush()

	if shown == 0 {
		o.Println("No items.")
	}

	return nil
}

func lsMatch(it *item.Item, status string, all, archivedOnly bool) bool {
	if archivedOnly {
		if !it.Archived {
			return false
		}
	} else if it.Archived && !all {
		return false
	}

	return status == "" || it.Status == status
}

func printRow(w *tabwriter.Writer, it *item.Item) {
	amount := "-"
	if it.Amount != nil {
		amount = fmt.Sprintf("%.2f", *it.Amount)
	}

	marker := statusMarker(it)

	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		it.ID, it.Type, it.Status, marker, amount, it.Client, it.Title)
}

// statusMarker summarizes the approval/payment state in one short tag.
func statusMarker(it *item.Item) string {
	switch {
	case it.Archived:
		return "[archived]"
	case it.PaymentConfirmedByDev:
		return "[paid+confirmed]"
	case it.PaymentRequested:
		return "[paid]"
	case it.ReviewRequested:
		return "[changes-requested]"
	case it.ClientApproved:
		return "[approved]"
	case it.NeedsClientApproval:
		return "[awaiting-approval]"
	default:
		return ""
	}
}
