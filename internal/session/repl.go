package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/tui"
)

// Prompt is shown before each interactive command.
const Prompt = "forage-agent> "

var helpEntries = []struct{ cmd, desc string }{
	{":help", "Show this help message"},
	{":exit", "Exit the CLI"},
	{":ls [path]", "List sandbox contents"},
	{":read <file>", "Read sandbox file"},
	{":run <command>", "Run allowed shell command"},
	{":audit", "Show recent audit entries"},
	{":reset", "Wipe sandbox directory"},
	{"write <file> :: <prompt>", "Generate code into file"},
	{"chat <prompt>", "Ask the AI a question"},
}

// Run reads commands from in until :exit, end of input or ctx is done.
// in must be the same reader any line-based confirmer reads from.
func (s *Session) Run(ctx context.Context, in *bufio.Reader) error {
	audit.Recordf(s.app.Audit, "%s %s", audit.SessionStarted, s.ID)
	s.printHelp()

	defer func() {
		fmt.Fprintln(s.out, tui.PromptStyle.Render("Goodbye!"))
		s.app.Audit.Record(audit.SessionClosed)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(s.out, tui.PromptStyle.Render(Prompt))

		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if err == io.EOF && line == "" {
			return nil
		}

		if quit := s.Handle(ctx, line); quit {
			return nil
		}
		if err == io.EOF {
			return nil
		}
	}
}

// Handle executes one interactive command line and reports whether the
// session should end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)

	switch {
	case input == "":
	case input == ":exit":
		s.app.Audit.Record(audit.SessionTerminated)
		return true
	case input == ":help":
		s.printHelp()
	case input == ":audit":
		s.showAudit()
	case input == ":reset":
		s.show(s.Reset(ctx))
	case hasCommand(input, ":ls"):
		s.showList(argument(input, ":ls"))
	case hasCommand(input, ":read"):
		target := argument(input, ":read")
		if target == "" {
			s.warn("Specify a file to read.")
			break
		}
		s.show(s.ReadArtifact(target))
	case hasCommand(input, ":run"):
		s.show(s.RunCommand(ctx, argument(input, ":run")))
	case strings.HasPrefix(input, "write "):
		path, prompt, valid := ParseWrite(strings.TrimPrefix(input, "write "))
		if !valid {
			s.fail("Use format: write <file> :: <prompt>")
			break
		}
		s.show(s.WriteArtifact(ctx, path, prompt))
	case strings.HasPrefix(input, "chat "):
		answer, err := s.Chat(ctx, strings.TrimPrefix(input, "chat "))
		if err != nil {
			s.fail(fmt.Sprintf("Chat failed: %v", err))
			break
		}
		fmt.Fprintln(s.out, tui.SuccessStyle.Render(answer))
	default:
		s.warn("Unknown command. Type :help for options.")
	}
	return false
}

// hasCommand matches name alone or followed by an argument.
func hasCommand(input, name string) bool {
	return input == name || strings.HasPrefix(input, name+" ")
}

func argument(input, name string) string {
	return strings.TrimSpace(strings.TrimPrefix(input, name))
}

func (s *Session) printHelp() {
	var b strings.Builder
	b.WriteString("\n" + tui.TitleStyle.Render("AI Terminal Agent Commands") + "\n")
	for _, e := range helpEntries {
		fmt.Fprintf(&b, "  %s - %s\n", tui.CommandStyle.Render(e.cmd), e.desc)
	}
	fmt.Fprintln(s.out, b.String())
}

func (s *Session) showList(target string) {
	entries, err := s.List(target)
	if err != nil {
		s.fail(err.Error())
		return
	}
	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		fmt.Fprintln(s.out, name)
	}
}

func (s *Session) showAudit() {
	lines, err := s.AuditTail(DefaultAuditTail)
	if err != nil || len(lines) == 0 {
		s.warn("Audit log is empty.")
		return
	}
	fmt.Fprintln(s.out, strings.Join(lines, "\n"))
}

func (s *Session) show(r Reply) {
	switch {
	case r.OK:
		if r.Message != "" {
			fmt.Fprintln(s.out, tui.SuccessStyle.Render(r.Message))
		}
		if r.Output != "" {
			fmt.Fprintln(s.out, r.Output)
		}
	case r.Err != nil:
		s.fail(r.Message)
	default:
		s.warn(r.Message)
	}
}

func (s *Session) warn(msg string) {
	fmt.Fprintln(s.out, tui.WarningStyle.Render(msg))
}

func (s *Session) fail(msg string) {
	fmt.Fprintln(s.out, tui.ErrorStyle.Render(msg))
}
