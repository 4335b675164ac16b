package main

import (
	"github.com/spf13/cobra"

	"github.com/cern-mig/dirq-go/dirq"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Operate on a round-robin set of queues",
}

var setConsumeCmd = &cobra.Command{
	Use:   "consume <root> [root...]",
	Short: "Round-robin consume across several queues",
	Long: `consume federates the given queue roots into one QueueSet and drains
it round-robin at queue granularity, exactly like the single-queue
consume command but dispatching each element back to the member queue
it came from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set := dirq.NewQueueSet()
		for _, root := range args {
			q, err := openQueue(root)
			if err != nil {
				return err
			}
			set.AddQueue(q)
		}
		return consumeLoop(cmd.Context(), set)
	},
}

func init() {
	setCmd.AddCommand(setConsumeCmd)
}
