package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

var errLoginInputUnavailable = errors.New("developer login required but no terminal available (set WT_USERNAME/WT_PASSWORD)")

// promptLogin collects a username/password pair. On a real terminal the
// password is read without echo via liner; scripted input (tests, pipes)
// supplies two lines on stdin instead.
func promptLogin(stdin io.Reader, errOut io.Writer) (string, string, error) {
	if file, ok := stdin.(*os.File); ok && file == os.Stdin && liner.TerminalSupported() {
		return promptLoginTerminal()
	}

	if stdin == nil {
		return "", "", errLoginInputUnavailable
	}

	scanner := bufio.NewScanner(stdin)

	_, _ = fmt.Fprint(errOut, "Username: ")

	if !scanner.Scan() {
		return "", "", errLoginInputUnavailable
	}

	username := strings.TrimSpace(scanner.Text())

	_, _ = fmt.Fprint(errOut, "Password: ")

	if !scanner.Scan() {
		return "", "", errLoginInputUnavailable
	}

	return username, scanner.Text(), nil
}

func promptLoginTerminal() (string, string, error) {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	username, err := line.Prompt("Username: ")
	if err != nil {
		return "", "", fmt.Errorf("reading username: %w", err)
	}

	password, err := line.PasswordPrompt("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimSpace(username), password, nil
}
