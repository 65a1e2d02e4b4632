package batchschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"horse.fit/briefing/internal/dedup"
)

//go:embed news_batch.schema.json
var newsBatchSchemaJSON string

const schemaResource = "news_batch.schema.json"

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

type envelope struct {
	Stories []dedup.NewsItem `json:"stories"`
}

// ValidateBatch checks raw against the batch schema and decodes it. raw may
// be a bare array of items or an object with a "stories" array.
func ValidateBatch(raw []byte) ([]dedup.NewsItem, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode batch JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	return decodeItems(bytes.TrimSpace(raw))
}

func decodeItems(raw []byte) ([]dedup.NewsItem, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var items []dedup.NewsItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		return nonNil(items), nil
	}

	var wrapped envelope
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal stories: %w", err)
	}
	return nonNil(wrapped.Stories), nil
}

func nonNil(items []dedup.NewsItem) []dedup.NewsItem {
	if items == nil {
		return []dedup.NewsItem{}
	}
	return items
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(schemaResource, strings.NewReader(newsBatchSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(schemaResource)
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("batch contains trailing content")
	}
	return value, nil
}

// BlankSources returns the indexes of items whose source is empty or
// whitespace. Such items are still valid; they are merged as "Unknown".
func BlankSources(items []dedup.NewsItem) []int {
	var blank []int
	for i, item := range items {
		if strings.TrimSpace(item.Source) == "" {
			blank = append(blank, i)
		}
	}
	return blank
}
