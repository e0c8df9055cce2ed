package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/chatgpt-cli-go/pkg/chat"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

const maxInputLine = 1024 * 1024

// exchanger is the part of chat.Orchestrator the REPL drives.
type exchanger interface {
	Exchange(ctx context.Context, key transcript.SessionKey, prompt string) (chat.Result, error)
	History(ctx context.Context, key transcript.SessionKey) (transcript.Transcript, error)
}

// replOptions configures REPL behavior.
type replOptions struct {
	Key           transcript.SessionKey
	InitialPrompt string
	Answer        *answerWriter
	Verbose       bool
	Logger        loggerpkg.Logger
}

// runREPL runs one exchange per prompt until exit or end of input. A failed
// turn is reported on errOut and the loop prompts again.
func runREPL(ctx context.Context, app exchanger, opts replOptions, in io.Reader, out, errOut io.Writer) error {
	if app == nil {
		return fmt.Errorf("chat orchestrator is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = out
	}
	if opts.Answer == nil {
		opts.Answer = newAnswerWriter(out)
	}

	loggerpkg.Debug(opts.Verbose, opts.Logger, "repl start", map[string]any{
		"session":        opts.Key.String(),
		"initial_prompt": opts.InitialPrompt != "",
	})

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	pending := opts.InitialPrompt

	for {
		var input string
		if pending != "" {
			input, pending = pending, ""
		} else {
			_, _ = fmt.Fprint(out, youLabel.Render("You:")+" ")
			if !scanner.Scan() {
				break
			}
			input = scanner.Text()
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}

		if strings.HasPrefix(input, "/") {
			handled, shouldQuit := handleCommand(ctx, input, app, opts.Key, out)
			if shouldQuit {
				break
			}
			if handled {
				continue
			}
		}

		_, err := app.Exchange(ctx, opts.Key, input)
		opts.Answer.finish()
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "%s %v\n\n", errLabel.Render("Error:"), err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func handleCommand(
	ctx context.Context,
	input string,
	app exchanger,
	key transcript.SessionKey,
	out io.Writer,
) (bool, bool) {
	cmd := strings.ToLower(input)
	switch cmd {
	case "/help", "/h":
		printHelp(out)
		return true, false
	case "/history":
		printHistory(ctx, app, key, out)
		return true, false
	case "/quit", "/exit", "/q":
		_, _ = fmt.Fprintln(out, "Goodbye!")
		return true, true
	default:
		_, _ = fmt.Fprintf(out, "Unknown command: %s. Type /help for available commands.\n\n", input)
		return true, false
	}
}

func printHistory(ctx context.Context, app exchanger, key transcript.SessionKey, out io.Writer) {
	history, err := app.History(ctx, key)
	if err != nil {
		_, _ = fmt.Fprintf(out, "%s %v\n\n", errLabel.Render("Error:"), err)
		return
	}
	if len(history) == 0 {
		_, _ = fmt.Fprintln(out, dimStyle.Render("(no turns yet)"))
		_, _ = fmt.Fprintln(out)
		return
	}
	for _, turn := range history {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", turn.Role, turn.Content)
	}
	_, _ = fmt.Fprintln(out)
}

func printHelp(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Commands:")
	_, _ = fmt.Fprintln(out, "  exit      - Exit the program")
	_, _ = fmt.Fprintln(out, "  /help     - Show this help message")
	_, _ = fmt.Fprintln(out, "  /history  - Show this session's conversation")
	_, _ = fmt.Fprintln(out, "  /quit     - Exit the program")
	_, _ = fmt.Fprintln(out)
}
