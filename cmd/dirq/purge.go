package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <root>",
	Short: "Run one purge pass and report what it reclaimed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue(args[0])
		if err != nil {
			return err
		}
		stats, err := q.Purge(cmd.Context(), flagMaxTemp, flagMaxLock)
		if err != nil {
			return err
		}
		fmt.Printf("temp removed:      %d\n", stats.TempRemoved)
		fmt.Printf("locks obsoleted:   %d\n", stats.LocksObsoleted)
		fmt.Printf("locks removed:     %d\n", stats.LocksRemoved)
		fmt.Printf("elements reclaimed:%d\n", stats.ElementsReclaimed)
		fmt.Printf("empty buckets:     %d\n", stats.EmptyBucketsRemoved)
		return nil
	},
}
