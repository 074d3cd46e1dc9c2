package main

import (
	"github.com/easeaico/memsearch/internal/assistant"
	"github.com/easeaico/memsearch/internal/tools"
	"github.com/spf13/cobra"
)

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the agent can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, d := range tools.Declarations {
				output(out, tagStyle.Render(d.Name))
				output(out, "  "+dimStyle.Render(d.Description))
			}
			return nil
		},
	}
}

func newAgentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "agent [console] [-streaming_mode none|sse]",
		Short: "Chat with an LLM agent that uses the knowledge base",
		Long: `Runs an LLM agent with the knowledge base tools in the ADK console launcher.
Remaining arguments are console launcher flags. Requires GOOGLE_API_KEY.
Configuration comes from MEMSEARCH_* variables and memsearch.yaml.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireAPIKey(); err != nil {
				return err
			}
			ctx := cmd.Context()

			kb, err := a.openKB(ctx)
			if err != nil {
				return err
			}
			defer kb.Close()

			llmAgent, err := assistant.New(ctx, assistant.Config{
				APIKey: a.cfg.APIKey,
				Model:  a.cfg.Model,
				KB:     kb,
			})
			if err != nil {
				return err
			}

			a.logger.Info("agent initialized", "model", a.cfg.Model, "entries", kb.Document().Knowledge.Len())
			return assistant.Run(ctx, llmAgent, kb, args)
		},
	}
}
