package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/xeipuuv/gojsonschema"
)

// recordsSchemaJSON accepts the row shapes produced by the JSON and
// extraction collaborators:
//
//	[{...}, {...}]                      bare array of rows
//	{"fields": [...], "rows": [...]}    table with declared header
//	{"text": "...", "fields": {...}}    extraction backend answer
//	{...}                               single row
const recordsSchemaJSON = `{
  "definitions": {
    "value": {"type": ["string", "number", "boolean", "null"]},
    "row": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/value"}
    },
    "rows": {"type": "array", "items": {"$ref": "#/definitions/row"}}
  },
  "anyOf": [
    {"$ref": "#/definitions/rows"},
    {
      "type": "object",
      "required": ["rows"],
      "properties": {
        "rows": {"$ref": "#/definitions/rows"},
        "fields": {"type": "array", "items": {"type": "string"}}
      }
    },
    {
      "type": "object",
      "required": ["fields"],
      "properties": {
        "text": {"type": "string"},
        "fields": {"$ref": "#/definitions/row"}
      }
    },
    {"$ref": "#/definitions/row"}
  ]
}`

var recordsSchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordsSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid records schema: %v", err))
	}
	return schema
}()

// PayloadError reports a JSON payload that does not match any accepted row
// shape.
type PayloadError struct {
	Problems []string
}

func (e *PayloadError) Error() string {
	return "invalid borrower payload: " + strings.Join(e.Problems, "; ")
}

// ParseRecordsJSON validates a JSON document against the accepted row shapes
// and converts it into a Table. A single record is normalized into a
// one-row table. Unless the document declares its fields, the declared
// columns are the union of row keys.
func ParseRecordsJSON(data []byte) (Table, error) {
	result, err := recordsSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Table{}, &PayloadError{Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Table{}, &PayloadError{Problems: problems}
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return Table{}, &PayloadError{Problems: []string{err.Error()}}
	}

	var (
		rows     []borrower.Record
		declared []string
		explicit bool
	)
	switch v := doc.(type) {
	case []interface{}:
		rows = toRecords(v)
	case map[string]interface{}:
		if rawRows, ok := v["rows"].([]interface{}); ok {
			rows = toRecords(rawRows)
			if rawFields, ok := v["fields"].([]interface{}); ok {
				explicit = true
				declared = make([]string, 0, len(rawFields))
				for _, f := range rawFields {
					if s, ok := f.(string); ok {
						declared = append(declared, s)
					}
				}
			}
		} else if fields, ok := v["fields"].(map[string]interface{}); ok {
			rows = []borrower.Record{borrower.FromMap(fields)}
		} else {
			rows = []borrower.Record{borrower.FromMap(v)}
		}
	}

	if !explicit {
		declared = unionFields(rows)
	}
	return Table{Fields: declared, Rows: rows}, nil
}

func toRecords(items []interface{}) []borrower.Record {
	rows := make([]borrower.Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rows = append(rows, borrower.FromMap(obj))
	}
	return rows
}
