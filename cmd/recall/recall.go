// Package recallcmder
package recallcmder

import (
	"github.com/spf13/cobra"

	eventscmder "github.com/papercomputeco/recall/cmd/recall/events"
	servecmder "github.com/papercomputeco/recall/cmd/recall/serve"
	versioncmder "github.com/papercomputeco/recall/cmd/version"
)

const recallLongDesc string = `Recall is a context-relevance memory server for LLM clients.

It archives conversation fragments, scores their relevance against new
context, promotes groups of fragments into summaries, and answers
tag/relevance-filtered retrieval queries over MCP, REST aliases, and SSE.

Run the server using:
  recall serve         Run the memory server
  recall events        Tail the live event feed of a running server`

const recallShortDesc string = "Recall - LLM memory server"

func NewRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recall",
		Short: recallShortDesc,
		Long:  recallLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(eventscmder.NewEventsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
