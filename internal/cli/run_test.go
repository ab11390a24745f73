package cli

import (
	"strings"
	"testing"
)

func TestNoArgsPrintsUsage(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	stdout, _, code := cli.Run()
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	AssertContains(t, stdout, "Usage: wt")
	AssertContains(t, stdout, "create")
	AssertContains(t, stdout, "mark-paid")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	stderr := cli.MustFail("frobnicate")
	AssertContains(t, stderr, "unknown command")
}

func TestUnknownFlag(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	stderr := cli.MustFail("--bogus", "ls")
	AssertContains(t, stderr, "unknown flag")
}

func TestUnknownRole(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	stderr := cli.MustFail("--role", "manager", "ls")
	AssertContains(t, stderr, "unknown role")
}

func TestRoleGating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"client cannot start", []string{"--role", "client", "start", "some-id"}},
		{"client cannot complete", []string{"--role", "client", "complete", "some-id"}},
		{"client cannot delete", []string{"--role", "client", "delete", "some-id"}},
		{"client cannot confirm payment", []string{"--role", "client", "confirm-payment", "some-id"}},
		{"dev cannot approve", []string{"approve", "some-id"}},
		{"dev cannot request changes", []string{"request-changes", "some-id"}},
		{"dev cannot mark paid", []string{"mark-paid", "some-id"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cli := NewCLI(t)

			stderr := cli.MustFail(tt.args...)
			AssertContains(t, stderr, "not available to role")
		})
	}
}

func TestBothRolesCanCreateAndComment(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	id := cli.Create("dev created")
	cli.MustRun("--role", "client", "comment", id, "-m", "client here")
	cli.MustRun("comment", id, "-m", "dev here")

	stdout := cli.MustRun("show", id)
	AssertContains(t, stdout, "client: client here")
	AssertContains(t, stdout, "dev: dev here")
}

func TestClientCreateDefaultsClientName(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	id := cli.MustRun("--role", "client", "create", "from the client side")

	stdout := cli.MustRun("show", id)
	AssertContains(t, stdout, "Client:     Client")
}

func TestDataFileOverride(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	cli.MustRun("--data-file", "other.json", "create", "elsewhere", "--client", "Acme")

	// The default data file was never written.
	_, _, code := cli.Run("show", "nope")
	if code == 0 {
		t.Fatal("expected failure on unknown id")
	}

	stdout := cli.MustRun("--data-file", "other.json", "ls")
	AssertContains(t, stdout, "elsewhere")
}

func TestPrintConfig(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)
	cli.WriteConfig(`{"default_hourly_rate": 120, "dev_password": "hunter2"}`)

	stdout := cli.MustRun("print-config")
	AssertContains(t, stdout, `"default_hourly_rate": 120`)
	AssertContains(t, stdout, "# Sources:")
	AssertNotContains(t, stdout, "hunter2")
}

func TestCommandHelpBypassesLogin(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)
	cli.WriteConfig(`{"dev_username": "dev", "dev_password": "secret"}`)

	stdout := cli.MustRun("start", "--help")
	AssertContains(t, stdout, "Usage: wt start")
}

func TestUsageListsEveryCommand(t *testing.T) {
	t.Parallel()

	cli := NewCLI(t)

	stdout, _, _ := cli.Run("--help")

	for _, cmd := range []string{
		"create", "ls", "show", "start", "reopen", "complete", "approve",
		"request-changes", "respond", "comment", "mark-paid", "confirm-payment",
		"delete", "edit", "export", "serve", "print-config",
	} {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("usage missing %q", cmd)
		}
	}
}
