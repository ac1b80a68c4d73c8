package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"gazeta/internal/domain/config"
	"gazeta/internal/store"
)

// exportCollections maps the top-level keys of an export document to
// collections. Both the legacy Romanian names and the current ones are read.
var exportCollections = map[string]store.Collection{
	"articole": store.Articles,
	"articles": store.Articles,
	"reviste":  store.Issues,
	"issues":   store.Issues,
}

func runImport(cfg config.Config, log *zap.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := parseExport(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	st, err := openStore(cfg, log, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	for c, records := range doc {
		n, err := st.Import(c, records)
		if err != nil {
			return err
		}
		log.Info("imported", zap.String("collection", string(c)), zap.Int("records", n))
	}
	return nil
}

// parseExport reads an export document: collection name, then key, then the
// record's fields. Unknown collections are an error.
func parseExport(data []byte) (map[store.Collection]map[string]store.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]map[string]store.Fields
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	out := make(map[store.Collection]map[string]store.Fields)
	for name, records := range raw {
		c, ok := exportCollections[name]
		if !ok {
			return nil, fmt.Errorf("unknown collection %q", name)
		}
		if out[c] == nil {
			out[c] = make(map[string]store.Fields, len(records))
		}
		for k, f := range records {
			out[c][k] = f
		}
	}
	return out, nil
}
