package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cern-mig/dirq-go/dirq"
)

var addCmd = &cobra.Command{
	Use:   "add <root> [payload | field=value ...]",
	Short: "Add one element to a queue",
	Long: `In simple mode (no --schema), payload is read from the argument if
given, otherwise from stdin, and stored as a single opaque element.

In typed mode (--schema given), the remaining arguments are
"field=value" pairs, one per schema field, building a Record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	root := args[0]
	rest := args[1:]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flagSchema == "" {
		return addSimple(ctx, root, rest)
	}
	return addTyped(ctx, root, rest)
}

func addSimple(ctx context.Context, root string, rest []string) error {
	q, err := dirq.NewSimpleQueue(root, optsFromFlags())
	if err != nil {
		return err
	}

	var payload []byte
	if len(rest) > 0 {
		payload = []byte(strings.Join(rest, " "))
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading payload from stdin: %w", err)
		}
		payload = data
	}

	id, err := q.AddBytes(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func addTyped(ctx context.Context, root string, rest []string) error {
	q, err := dirq.NewTypedQueue(root, flagSchema, optsFromFlags())
	if err != nil {
		return err
	}

	record, err := parseRecordArgs(q.Schema(), rest)
	if err != nil {
		return err
	}

	id, err := q.AddRecord(ctx, record)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

// parseRecordArgs turns "field=value" CLI arguments into a Record,
// using the schema to decide whether a field's value is a string, raw
// bytes, or a comma-separated table.
func parseRecordArgs(schema *dirq.Schema, args []string) (dirq.Record, error) {
	record := make(dirq.Record, len(args))
	for _, arg := range args {
		eq := strings.IndexByte(arg, '=')
		if eq < 0 {
			return nil, fmt.Errorf("argument %q is not in field=value form", arg)
		}
		name, raw := arg[:eq], arg[eq+1:]
		field, ok := schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("schema has no field %q", name)
		}
		switch field.Kind {
		case dirq.FieldBinary:
			record[name] = dirq.BinaryValue([]byte(raw))
		case dirq.FieldTable:
			record[name] = dirq.TableValue(strings.Split(raw, ","))
		default:
			record[name] = dirq.StringValue(raw)
		}
	}
	return record, nil
}
