package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/moa/core"
)

// turnFlags are the generation overrides shared by ask and chat.
type turnFlags struct {
	aggregator  string
	models      []string
	temperature float64
	maxTokens   int
	rounds      int
}

func (f *turnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.aggregator, "aggregator", "a", "", "aggregator model (defaults to generation.aggregator_model)")
	cmd.Flags().StringSliceVarP(&f.models, "models", "m", nil, "reference models, comma separated (defaults to the session selection)")
	cmd.Flags().Float64VarP(&f.temperature, "temperature", "t", core.DefaultTemperature, "sampling temperature in [0,1]")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", core.DefaultMaxTokens, "maximum tokens per completion")
	cmd.Flags().IntVar(&f.rounds, "rounds", 1, "number of reference rounds before aggregation")
}

// apply overrides p with the flags the user set explicitly.
func (f *turnFlags) apply(cmd *cobra.Command, p core.Params) core.Params {
	if cmd.Flags().Changed("aggregator") {
		p.AggregatorModel = f.aggregator
	}
	if cmd.Flags().Changed("models") {
		p.ReferenceModels = f.models
	}
	if cmd.Flags().Changed("temperature") {
		p.Temperature = f.temperature
	}
	if cmd.Flags().Changed("max-tokens") {
		p.MaxTokens = f.maxTokens
	}
	if cmd.Flags().Changed("rounds") {
		p.Rounds = f.rounds
	}
	return p
}

func newAskCommand(a *app) *cobra.Command {
	var (
		flags turnFlags
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Ask a single question",
		Long: `Runs one Mixture-of-Agents turn and streams the synthesized answer to stdout.
Progress notices and timings are written to stderr.

The question continues the user's current conversation unless --new is given.

Example:
  moa ask --models Qwen/Qwen2-72B-Instruct,meta-llama/Llama-3-70b-chat-hf "Explain MoA in one sentence"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.build(cmd.Context()); err != nil {
				return err
			}

			sess, err := a.moa.LoadSession(a.userID)
			if err != nil {
				return err
			}
			if fresh {
				sess.NewConversation()
			}

			params := flags.apply(cmd, a.moa.Params(sess))
			r := newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr())

			res := a.moa.Engine().RunTurn(cmd.Context(), sess, strings.Join(args, " "), params, r.Progress)
			return res.Err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&fresh, "new", false, "start a new conversation before asking")

	return cmd
}
