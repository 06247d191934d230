package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/udisondev/abilitycore/internal/data"
)

// document is the generated file: the content bundle schema plus one schema
// per effect payload kind, since payloads are decoded by kind at load time.
type document struct {
	Content  *jsonschema.Schema            `json:"content"`
	Payloads map[string]*jsonschema.Schema `json:"payloads"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() document {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	content := reflector.Reflect(new(data.ContentFile))
	content.Title = "Ability content"
	content.Description = "Skills, statuses and executions loaded by combatsim"

	payloads := make(map[string]*jsonschema.Schema)
	for kind, proto := range data.PayloadPrototypes() {
		payloads[kind] = reflector.Reflect(proto)
	}

	return document{Content: content, Payloads: payloads}
}

func writeSchema(outPath string, doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
