// Package cli implements the wt command line: global flag parsing, config
// resolution, role gating, and dispatch to the per-command implementations.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"wt/internal/auth"
	"wt/internal/config"
	"wt/internal/item"
	"wt/internal/ledger"
	"wt/internal/store"
	"wt/internal/workflow"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Roles.
const (
	RoleDev    = "dev"
	RoleClient = "client"
)

var (
	errUnknownCommand  = errors.New("unknown command")
	errUnknownFlag     = errors.New("unknown flag")
	errFlagRequiresArg = errors.New("flag requires an argument")
	errUnknownRole     = errors.New("unknown role (want dev or client)")
	errNotPermitted    = errors.New("command not available to role")
	errIDRequired      = errors.New("item ID is required")
)

// devOnly and clientOnly list the commands each role may not share. The role
// boundary lives here: the engine itself never checks who is calling.
//
//nolint:gochecknoglobals // package-level constants
var (
	devOnly    = []string{"start", "reopen", "complete", "respond", "confirm-payment", "delete", "edit", "serve"}
	clientOnly = []string{"approve", "request-changes", "mark-paid"}
)

// app carries everything a command needs.
type app struct {
	cfg       config.Config
	sources   config.Sources
	workDir   string
	role      string
	engine    *workflow.Engine
	attachDir string
	stdin     io.Reader
}

// actor returns the comment actor for the active role.
func (a *app) actor() string {
	if a.role == RoleClient {
		return item.ActorClient
	}

	return item.ActorDev
}

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	overrides := config.Overrides{DataFile: flags.dataFile, HasDataFile: flags.hasDataFile}

	cfg, sources, err := config.Load(workDir, flags.configPath, overrides, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	cmdArgs := flags.remaining[1:]

	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	role := flags.role
	if role == "" {
		role = RoleDev
	}

	if role != RoleDev && role != RoleClient {
		fprintln(errOut, "error:", errUnknownRole)

		return 1
	}

	if gateErr := checkRole(role, cmd); gateErr != nil {
		fprintln(errOut, "error:", gateErr)

		return 1
	}

	// The developer role is unlocked by the configured credential pair.
	// Help output stays reachable without logging in.
	if role == RoleDev && slices.Contains(devOnly, cmd) && !hasHelpFlag(cmdArgs) {
		loginErr := devLogin(stdin, errOut, cfg, env)
		if loginErr != nil {
			fprintln(errOut, "error:", loginErr)

			return 1
		}
	}

	a := &app{
		cfg:       cfg,
		sources:   sources,
		workDir:   workDir,
		role:      role,
		engine:    newEngine(cfg, workDir),
		attachDir: resolvePath(workDir, cfg.AttachDir),
		stdin:     stdin,
	}

	ioCtx := NewIO(out, errOut)

	var cmdErr error

	switch cmd {
	case "create":
		cmdErr = cmdCreate(ioCtx, a, cmdArgs)
	case "ls":
		cmdErr = cmdLs(ioCtx, a, cmdArgs)
	case "show":
		cmdErr = cmdShow(ioCtx, a, cmdArgs)
	case "start":
		cmdErr = cmdStart(ioCtx, a, cmdArgs)
	case "reopen":
		cmdErr = cmdReopen(ioCtx, a, cmdArgs)
	case "complete":
		cmdErr = cmdComplete(ioCtx, a, cmdArgs)
	case "approve":
		cmdErr = cmdApprove(ioCtx, a, cmdArgs)
	case "request-changes":
		cmdErr = cmdRequestChanges(ioCtx, a, cmdArgs)
	case "respond":
		cmdErr = cmdRespond(ioCtx, a, cmdArgs)
	case "comment":
		cmdErr = cmdComment(ioCtx, a, cmdArgs)
	case "mark-paid":
		cmdErr = cmdMarkPaid(ioCtx, a, cmdArgs)
	case "confirm-payment":
		cmdErr = cmdConfirmPayment(ioCtx, a, cmdArgs)
	case "delete":
		cmdErr = cmdDelete(ioCtx, a, cmdArgs)
	case "edit":
		cmdErr = cmdEdit(ioCtx, a, cmdArgs)
	case "export":
		cmdErr = cmdExport(ioCtx, a, cmdArgs)
	case "serve":
		cmdErr = cmdServe(ioCtx, a, cmdArgs)
	case "print-config":
		cmdErr = cmdPrintConfig(ioCtx, a)
	default:
		fprintln(errOut, "error:", errUnknownCommand, cmd)
		printUsage(errOut)

		return 1
	}

	if cmdErr != nil {
		fprintln(errOut, "error:", cmdErr)

		return 1
	}

	return ioCtx.Finish()
}

// newEngine wires the store, ledger, and archive policy for the resolved
// config. Paths are resolved relative to the working directory.
func newEngine(cfg config.Config, workDir string) *workflow.Engine {
	dataFile := resolvePath(workDir, cfg.DataFile)
	attachDir := resolvePath(workDir, cfg.AttachDir)

	policy := workflow.Policy{
		ArchiveOnComplete: cfg.ArchiveOnComplete,
		ArchiveOnApprove:  cfg.ArchiveOnApprove,
	}

	return workflow.New(store.New(dataFile), ledger.New(attachDir), policy)
}

func resolvePath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

// checkRole enforces the per-role command subset.
func checkRole(role, cmd string) error {
	if role == RoleClient && slices.Contains(devOnly, cmd) {
		return fmt.Errorf("%w: %s (role %s)", errNotPermitted, cmd, role)
	}

	if role == RoleDev && slices.Contains(clientOnly, cmd) {
		return fmt.Errorf("%w: %s (role %s)", errNotPermitted, cmd, role)
	}

	return nil
}

type globalFlags struct {
	workDir     string
	configPath  string
	dataFile    string
	hasDataFile bool
	role        string
	remaining   []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
//
//nolint:cyclop // flag forms are inherently branchy
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --data-file flag
	if arg == "--data-file" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.dataFile = args[idx+1]
		flags.hasDataFile = true

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--data-file="); ok {
		flags.dataFile = after
		flags.hasDataFile = true

		return consumedOne, nil
	}

	// --role flag
	if arg == "--role" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		flags.role = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--role="); ok {
		flags.role = after

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func cmdPrintConfig(o *IO, a *app) error {
	formatted, err := config.Format(a.cfg)
	if err != nil {
		return err
	}

	o.Println(formatted)

	o.Println("")
	o.Println("# Sources:")

	if a.sources.Global != "" {
		o.Println("#   global:", a.sources.Global)
	}

	if a.sources.Project != "" {
		o.Println("#   project:", a.sources.Project)
	}

	if a.sources.Global == "" && a.sources.Project == "" {
		o.Println("#   (using defaults only)")
	}

	return nil
}

// devLogin validates the developer credential pair when one is configured.
// The presented pair comes from WT_USERNAME/WT_PASSWORD or an interactive
// prompt. With no pair configured, the local user is trusted.
func devLogin(stdin io.Reader, errOut io.Writer, cfg config.Config, env map[string]string) error {
	creds := auth.Credentials{Username: cfg.DevUsername, Password: cfg.DevPassword}
	if !creds.Configured() {
		return nil
	}

	username, password := env["WT_USERNAME"], env["WT_PASSWORD"]

	if username == "" && password == "" {
		var promptErr error

		username, password, promptErr = promptLogin(stdin, errOut)
		if promptErr != nil {
			return promptErr
		}
	}

	return creds.Verify(username, password)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(writer io.Writer) {
	fprintln(writer, `wt - two-role workflow tracker

Usage: wt [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  --data-file <file>     Override the data file path
  --role <dev|client>    Act as developer (default) or client

Commands:`)
	fprintln(writer, createHelp)
	fprintln(writer, lsHelp)
	fprintln(writer, showHelp)
	fprintln(writer, startHelp)
	fprintln(writer, reopenHelp)
	fprintln(writer, completeHelp)
	fprintln(writer, approveHelp)
	fprintln(writer, requestChangesHelp)
	fprintln(writer, respondHelp)
	fprintln(writer, commentHelp)
	fprintln(writer, markPaidHelp)
	fprintln(writer, confirmPaymentHelp)
	fprintln(writer, deleteHelp)
	fprintln(writer, editHelp)
	fprintln(writer, exportHelp)
	fprintln(writer, serveHelp)
	fprintln(writer, `  print-config           Show resolved configuration`)
}
