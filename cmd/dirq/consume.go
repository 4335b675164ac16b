package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cern-mig/dirq-go/dirq"
)

var consumeCmd = &cobra.Command{
	Use:   "consume <root>",
	Short: "Iterate a queue, printing and removing each element",
	Long: `consume walks every visible element once: lock it, print its payload
(or typed fields) to stdout, then remove it. An element another
consumer already holds the lock on is skipped, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue(args[0])
		if err != nil {
			return err
		}
		return consumeLoop(cmd.Context(), q)
	},
}

func consumeLoop(ctx context.Context, q dirq.Queue) error {
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := q.First(ctx)
	for {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if consumeErr := consumeOne(ctx, q, id); consumeErr != nil {
			return consumeErr
		}

		id, err = q.Next(ctx)
	}
}

func consumeOne(ctx context.Context, q dirq.Queue, id string) error {
	ok, err := q.Lock(ctx, id, true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	payload, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	printPayload(id, payload)

	return q.Remove(ctx, id)
}

func printPayload(id string, payload any) {
	switch v := payload.(type) {
	case []byte:
		fmt.Printf("%s\t%s\n", id, v)
	case dirq.Record:
		fmt.Printf("%s:\n", id)
		for name, value := range v {
			fmt.Printf("  %s=%v\n", name, fieldString(value))
		}
	default:
		fmt.Printf("%s\t%v\n", id, v)
	}
}

func fieldString(v dirq.Value) any {
	switch v.Kind {
	case dirq.KindBinary:
		return v.Bin
	case dirq.KindTable:
		return v.Table
	default:
		return v.Str
	}
}
