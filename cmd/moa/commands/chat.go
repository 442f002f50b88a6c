package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/moa"
	"github.com/hupe1980/moa/core"
)

const chatHelp = `Commands:
  /new                  start a new conversation
  /system [text]        show or set additional system instructions
  /models               show the reference model selection
  /toggle <model>       select or deselect a reference model
  /aggregator [model]   show or set the aggregator model
  /temperature <t>      set the temperature (0-1)
  /max_tokens <n>       set the maximum tokens
  /history              show the current conversation
  /download [file]      save the conversation (default chat_history.txt)
  /conversations        list previous conversations
  /load <n>             continue a previous conversation
  /help                 show this help
  /quit                 leave the chat`

func newChatCommand(a *app) *cobra.Command {
	var flags turnFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Starts an interactive Mixture-of-Agents chat. The conversation, the model
selection, the system instructions and previous conversations are saved per
user after every turn and restored on the next start.

Type /help inside the chat for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.build(cmd.Context()); err != nil {
				return err
			}

			sess, err := a.moa.LoadSession(a.userID)
			if err != nil {
				return err
			}

			c := &repl{
				app:    a,
				sess:   sess,
				params: flags.apply(cmd, a.moa.Params(sess)),
				r:      newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}
			return c.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	flags.register(cmd)
	return cmd
}

// repl is the interactive chat loop.
type repl struct {
	app    *app
	sess   *core.Session
	params core.Params
	r      *renderer
}

func (c *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	c.r.title("💬 Chat with MoA")
	c.r.info("Logged in as %s. Type /help for commands.", c.sess.ID)

	for {
		fmt.Fprint(c.r.out, c.r.styles.Prompt.Render("> "))
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := c.command(line)
			if err != nil {
				c.r.errorf("%v", err)
			}
			if quit {
				return nil
			}
			continue
		}

		c.ask(ctx, line)
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (c *repl) ask(ctx context.Context, prompt string) {
	p := c.params
	p.ReferenceModels = moa.SelectedReferences(c.sess, p.AggregatorModel)
	// failures are rendered through the turn_failed event
	_ = c.app.moa.Engine().RunTurn(ctx, c.sess, prompt, p, c.r.Progress)
}

func (c *repl) command(line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(c.r.out, c.r.styles.Help.Render(chatHelp))

	case "/new":
		c.sess.NewConversation()
		c.r.info("Started a new conversation.")
		return false, c.save()

	case "/system":
		if arg == "" {
			fmt.Fprintln(c.r.out, c.sess.UserSystemPrompt)
			return false, nil
		}
		c.sess.UpdateSystemInstructions(arg)
		c.r.info("System instructions updated successfully!")
		return false, c.save()

	case "/models":
		fmt.Fprint(c.r.out, c.r.modelList(knownModels(c.params.ReferenceModels, c.sess.Models()), c.sess.Models(), c.params.AggregatorModel))

	case "/toggle":
		if arg == "" {
			return false, errors.New("usage: /toggle <model>")
		}
		if c.sess.ToggleModel(arg) {
			c.r.info("Selected %s.", arg)
		} else {
			c.r.info("Deselected %s.", arg)
		}
		return false, c.save()

	case "/aggregator":
		if arg == "" {
			fmt.Fprintln(c.r.out, c.params.AggregatorModel)
			return false, nil
		}
		c.params.AggregatorModel = arg
		c.r.info("Aggregator set to %s.", arg)

	case "/temperature":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil || t < 0 || t > 1 {
			return false, fmt.Errorf("temperature must be a number between 0 and 1, got %q", arg)
		}
		c.params.Temperature = t
		c.r.info("Temperature set to %.2f.", t)

	case "/max_tokens":
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return false, fmt.Errorf("max tokens must be a positive integer, got %q", arg)
		}
		c.params.MaxTokens = n
		c.r.info("Max tokens set to %d.", n)

	case "/history":
		fmt.Fprintln(c.r.out, c.sess.Transcript())

	case "/download":
		file := arg
		if file == "" {
			file = "chat_history.txt"
		}
		if err := os.WriteFile(file, []byte(c.sess.Transcript()), 0o644); err != nil {
			return false, fmt.Errorf("download chat history: %w", err)
		}
		c.r.info("Chat history written to %s.", file)

	case "/conversations":
		records := c.sess.ConversationRecords()
		if len(records) == 0 {
			c.r.info("No previous conversations.")
		}
		for i, rec := range records {
			fmt.Fprintf(c.r.out, "%d. %s\n", i+1, truncate(rec.FirstQuestion, 30))
		}

	case "/load":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("usage: /load <n>")
		}
		if err := c.sess.RestoreConversation(n - 1); err != nil {
			return false, err
		}
		c.r.info("Loaded conversation %d.", n)
		return false, c.save()

	default:
		return false, fmt.Errorf("unknown command %s (type /help)", name)
	}

	return false, nil
}

func (c *repl) save() error {
	return c.app.moa.SaveSession(c.sess)
}

// knownModels merges the default models with the configured and selected
// ones, keeping the first occurrence.
func knownModels(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range append([][]string{core.DefaultReferenceModels}, lists...) {
		for _, m := range list {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
