// Command dirq drives directory-based queues directly from a shell:
// add an element, consume one queue or a round-robin set, or run a
// single purge pass, all without a running server process.
//
// Modeled on the teacher's per-verb cobra.Command shape (see
// cmd/touch in the rclone tree this project started from), collapsed
// into a single binary rather than spread across a shared-registry
// package since dirq has four verbs, not dozens.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cern-mig/dirq-go/dirq"
)

var (
	flagUmask       int
	flagGranularity int
	flagRndHex      int
	flagMaxTemp     time.Duration
	flagMaxLock     time.Duration
	flagSchema      string
)

var rootCmd = &cobra.Command{
	Use:   "dirq",
	Short: "Inspect and drive directory-based queues from the command line",
	Long: `dirq operates directory-based queues directly: add an element to a
simple or typed queue, consume from one queue or a round-robin set of
queues, and run a purge pass, all against a plain directory tree with
no server involved.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagUmask, "umask", -1, "umask applied to created files and directories (-1 uses dirq's default)")
	rootCmd.PersistentFlags().IntVar(&flagGranularity, "granularity", 0, "bucket width in seconds (0 uses dirq's default)")
	rootCmd.PersistentFlags().IntVar(&flagRndHex, "rndhex", -1, "random hex digits in element names (-1 derives one from the process id)")
	rootCmd.PersistentFlags().DurationVar(&flagMaxTemp, "maxtemp", 600*time.Second, "purge staleness window for orphaned staging files")
	rootCmd.PersistentFlags().DurationVar(&flagMaxLock, "maxlock", 600*time.Second, "purge staleness window for lock markers")
	rootCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "typed-queue schema string; when set, add/consume operate in typed mode")

	rootCmd.AddCommand(addCmd, consumeCmd, purgeCmd, setCmd)
}

func optsFromFlags() dirq.Options {
	opts := dirq.DefaultOptions()
	if flagUmask >= 0 {
		opts.Umask = flagUmask
	}
	if flagGranularity > 0 {
		opts.Granularity = flagGranularity
	}
	opts.RndHex = flagRndHex
	return opts
}

// openQueue opens a simple or typed queue at root depending on
// whether --schema was given, so every subcommand shares one notion
// of "the queue at this path".
func openQueue(root string) (dirq.Queue, error) {
	if flagSchema != "" {
		return dirq.NewTypedQueue(root, flagSchema, optsFromFlags())
	}
	return dirq.NewSimpleQueue(root, optsFromFlags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
