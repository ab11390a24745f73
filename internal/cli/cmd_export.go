package cli

import (
	"fmt"
	"os"

	"wt/internal/export"

	flag "github.com/spf13/pflag"
)

const exportHelp = `  export                 Export all items as CSV or JSON
    --format               Output format (csv|json) [default: json]
    --out                  Write to file instead of stdout`

const exportFilePerms = 0o600

func cmdExport(o *IO, a *app, args []string) error {
	flagSet := flag.NewFlagSet("export", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.Println("Usage: wt export [options]")
		o.Println("")
		o.Println("Export every item, archived included, as CSV or JSON.")
		o.Println("")
		o.Println("Options:")
		flagSet.PrintDefaults()
	}

	format := flagSet.String("format", "json", "Output format (csv|json)")
	out := flagSet.String("out", "", "Write to file instead of stdout")

	if hasHelpFlag(args) {
		flagSet.Usage()

		return nil
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	items := a.engine.Items()

	var (
		data []byte
		err  error
	)

	switch *format {
	case "csv":
		data, err = export.CSV(items)
	case "json":
		data, err = export.JSON(items)
	default:
		return fmt.Errorf("unknown format %q (want csv or json)", *format)
	}

	if err != nil {
		return err
	}

	if *out == "" {
		_, writeErr := o.out.Write(data)

		return writeErr
	}

	path := resolvePath(a.workDir, *out)

	writeErr := os.WriteFile(path, data, exportFilePerms)
	if writeErr != nil {
		return fmt.Errorf("write export: %w", writeErr)
	}

	o.Printf("Exported %d item(s) to %s\n", len(items), path)

	return nil
}
