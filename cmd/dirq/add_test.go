package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cern-mig/dirq-go/dirq"
)

func TestParseRecordArgsBuildsTypedFields(t *testing.T) {
	schema, err := dirq.ParseSchema("body:string blob:binary rows:table")
	require.NoError(t, err)

	record, err := parseRecordArgs(schema, []string{
		"body=hello",
		"blob=raw",
		"rows=a,b,c",
	})
	require.NoError(t, err)

	assert.Equal(t, dirq.StringValue("hello"), record["body"])
	assert.Equal(t, dirq.BinaryValue([]byte("raw")), record["blob"])
	assert.Equal(t, dirq.TableValue([]string{"a", "b", "c"}), record["rows"])
}

func TestParseRecordArgsRejectsMalformedPair(t *testing.T) {
	schema, err := dirq.ParseSchema("body:string")
	require.NoError(t, err)

	_, err = parseRecordArgs(schema, []string{"body-missing-equals"})
	assert.Error(t, err)
}

func TestParseRecordArgsRejectsUnknownField(t *testing.T) {
	schema, err := dirq.ParseSchema("body:string")
	require.NoError(t, err)

	_, err = parseRecordArgs(schema, []string{"nope=x"})
	assert.Error(t, err)
}
