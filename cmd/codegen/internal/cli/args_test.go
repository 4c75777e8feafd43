package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"https://api.example.com/graphql", false},
		{"http://localhost:4000/graphql", false},
		{"ftp://example.com", true},
		{"api.example.com/graphql", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		if err := validateURL(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidatePaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "schema.graphqls")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing")

	tests := []struct {
		name    string
		fn      func(string) error
		in      string
		wantErr bool
	}{
		{"dir ok", validateDir, dir, false},
		{"dir missing ok", validateDir, missing, false},
		{"dir is file", validateDir, file, true},
		{"dir empty", validateDir, "", true},
		{"file ok", validateFile, file, false},
		{"file missing ok", validateFile, missing, false},
		{"file is dir", validateFile, dir, true},
		{"file empty", validateFile, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlagValues(t *testing.T) {
	var endpoint string
	v := newURLValue(&endpoint)
	if err := v.Set("ftp://nope"); err == nil {
		t.Error("Set accepted a non-http URL")
	}
	if endpoint != "" {
		t.Errorf("rejected value was stored: %q", endpoint)
	}
	if err := v.Set("https://api.example.com/graphql"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v.String() != endpoint || v.Type() != "url" {
		t.Errorf("String() = %q, Type() = %q", v.String(), v.Type())
	}

	var zero urlValue
	if zero.String() != "" {
		t.Error("zero value should print empty")
	}
}
