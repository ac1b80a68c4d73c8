package main

import (
	"encoding/json"
	"testing"

	"gazeta/internal/store"
)

func TestParseExportLegacyKeys(t *testing.T) {
	doc, err := parseExport([]byte(`{
		"articole": {"-Nabc": {"titlu": "Toamna", "autor": "Ana", "views": 12}},
		"reviste":  {"r1": {"titlu": "Iarna", "pdfUrl": "iarna.pdf"}},
		"issues":   {"r2": {"title": "Vara"}}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc[store.Articles]) != 1 || len(doc[store.Issues]) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	if n, ok := doc[store.Articles]["-Nabc"]["views"].(json.Number); !ok || n.String() != "12" {
		t.Fatalf("views = %#v", doc[store.Articles]["-Nabc"]["views"])
	}
}

func TestParseExportRejectsUnknownCollection(t *testing.T) {
	if _, err := parseExport([]byte(`{"utilizatori": {}}`)); err == nil {
		t.Fatal("want error for unknown collection")
	}
	if _, err := parseExport([]byte(`[1, 2]`)); err == nil {
		t.Fatal("want error for a non-object document")
	}
}
