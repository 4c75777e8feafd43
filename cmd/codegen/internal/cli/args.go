package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/pflag"
)

// urlValue is a flag holding an absolute http or https URL.
type urlValue struct{ target *string }

// dirValue is a flag holding a path that is a directory or does not exist yet.
type dirValue struct{ target *string }

// fileValue is a flag holding a path that is not a directory.
type fileValue struct{ target *string }

var (
	_ pflag.Value = (*urlValue)(nil)
	_ pflag.Value = (*dirValue)(nil)
	_ pflag.Value = (*fileValue)(nil)
)

func newURLValue(p *string) *urlValue   { return &urlValue{target: p} }
func newDirValue(p *string) *dirValue   { return &dirValue{target: p} }
func newFileValue(p *string) *fileValue { return &fileValue{target: p} }

func (v *urlValue) Set(s string) error {
	if err := validateURL(s); err != nil {
		return err
	}
	*v.target = s
	return nil
}

func (v *urlValue) String() string { return deref(v.target) }
func (v *urlValue) Type() string   { return "url" }

func (v *dirValue) Set(s string) error {
	if err := validateDir(s); err != nil {
		return err
	}
	*v.target = s
	return nil
}

func (v *dirValue) String() string { return deref(v.target) }
func (v *dirValue) Type() string   { return "dir" }

func (v *fileValue) Set(s string) error {
	if err := validateFile(s); err != nil {
		return err
	}
	*v.target = s
	return nil
}

func (v *fileValue) String() string { return deref(v.target) }
func (v *fileValue) Type() string   { return "file" }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// validateURL requires an http or https scheme and a host.
func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", s)
	}
	return nil
}

// validateDir rejects an existing path that is not a directory.
func validateDir(s string) error {
	if s == "" {
		return errors.New("directory path is empty")
	}
	info, err := os.Stat(s)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s)
	}
	return nil
}

// validateFile rejects an existing path that is a directory.
func validateFile(s string) error {
	if s == "" {
		return errors.New("file path is empty")
	}
	info, err := os.Stat(s)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}
