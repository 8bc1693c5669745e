package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fourthcoffee/fc-commerce/internal/config"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantError  bool
	}{
		{"s3://lab-data/relational", "lab-data", "relational", false},
		{"s3://lab-data/relational/", "lab-data", "relational", false},
		{"s3://lab-data", "lab-data", "", false},
		{"s3:///relational", "", "", true},
		{"https://lab-data/relational", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseS3URI(%q) error = %v, wantError %v", tt.uri, err, tt.wantError)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("Expected (%s, %s), got (%s, %s)", tt.wantBucket, tt.wantPrefix, bucket, prefix)
			}
		})
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "DimDate.csv"), []byte("DateKey\n20251001\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	src, err := New(context.Background(), dir, config.StorageConfig{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	rc, err := src.Open(context.Background(), "DimDate.csv")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "DateKey\n20251001\n" {
		t.Errorf("Unexpected content %q", data)
	}

	_, err = src.Open(context.Background(), "Missing.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}

	if got := src.Location("DimDate.csv"); got != filepath.Join(dir, "DimDate.csv") {
		t.Errorf("Unexpected location %s", got)
	}
}

func TestS3SourceLocation(t *testing.T) {
	src, err := NewS3Source(context.Background(), "lab-data", "relational", config.StorageConfig{
		Endpoint:     "http://localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewS3Source error: %v", err)
	}
	if got := src.Location("FactSales.csv"); got != "s3://lab-data/relational/FactSales.csv" {
		t.Errorf("Unexpected location %s", got)
	}
}

func TestS3SourceOpen(t *testing.T) {
	const csvBody = "ShopKey,ShopName\n1,Downtown\n"
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method == http.MethodGet && r.URL.Path == "/lab-data/relational/DimShop.csv" {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, csvBody)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
	}))
	defer srv.Close()

	src, err := NewS3Source(context.Background(), "lab-data", "relational", config.StorageConfig{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewS3Source error: %v", err)
	}

	rc, err := src.Open(context.Background(), "DimShop.csv")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if string(data) != csvBody {
		t.Errorf("Expected %q, got %q", csvBody, data)
	}
	if gotPath != "/lab-data/relational/DimShop.csv" {
		t.Errorf("Expected path-style request, got %s", gotPath)
	}

	_, err = src.Open(context.Background(), "Missing.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}
