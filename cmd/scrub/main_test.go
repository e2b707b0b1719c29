package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const twoSlotCSV = "First Name,Last Name,Phone 1,Phone 2,Email 1,Email 2,Property Address\n" +
	"Ann,Lee, ,555-0100,bad,ann@example.com,12 Oak St\n" +
	"Bob,Ray,,,bad,worse,9 Elm Ave\n" +
	"Cat,Fox,555-0101,,cat@example.com,,12 OAK st\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(o *options)
		wantRows []string
	}{
		{
			name:     "defaults drop missing phones and duplicates",
			opts:     func(o *options) {},
			wantRows: []string{"Ann"},
		},
		{
			name:     "keep duplicates",
			opts:     func(o *options) { o.keepDuplicates = true },
			wantRows: []string{"Ann", "Cat"},
		},
		{
			name: "keep missing phone still drops rows with no valid email",
			opts: func(o *options) {
				o.keepMissingPhone = true
				o.keepInvalidPhone = true
			},
			wantRows: []string{"Ann"},
		},
		{
			name: "keep everything",
			opts: func(o *options) {
				o.keepDuplicates = true
				o.keepMissingPhone = true
				o.keepInvalidPhone = true
				o.keepInvalidEmail = true
			},
			wantRows: []string{"Ann", "Bob", "Cat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.csv")
			o := options{in: writeInput(t, twoSlotCSV), out: out, phones: 2, emails: 2, tier: "basic"}
			tt.opts(&o)

			if err := run(context.Background(), o); err != nil {
				t.Fatalf("run() error = %v", err)
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if lines[0] != "First Name,Last Name,Phone 1,Phone 2,Email 1,Email 2,Property Address" {
				t.Errorf("header = %q", lines[0])
			}

			var got []string
			for _, l := range lines[1:] {
				got = append(got, strings.SplitN(l, ",", 2)[0])
			}
			if strings.Join(got, ",") != strings.Join(tt.wantRows, ",") {
				t.Errorf("rows = %v, want %v", got, tt.wantRows)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	in := writeInput(t, twoSlotCSV)

	tests := []struct {
		name string
		opts options
	}{
		{"no input", options{out: "-", phones: 1, emails: 1, tier: "basic"}},
		{"bad tier", options{in: in, out: "-", phones: 1, emails: 1, tier: "gold"}},
		{"bad slot count", options{in: in, out: "-", phones: 9, emails: 1, tier: "basic"}},
		{"prison without lookup url", options{in: in, out: "-", phones: 1, emails: 1, tier: "prison"}},
		{"missing file", options{in: in + ".nope", out: "-", phones: 1, emails: 1, tier: "basic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.opts); err == nil {
				t.Error("run() error = nil, want error")
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "out.csv")
	if err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	}); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "a,b\n" {
		t.Errorf("file = %q", data)
	}

	errWrite := errors.New("write failed")
	if err := writeOutput(filepath.Join(dir, "x.csv"), func(io.Writer) error { return errWrite }); !errors.Is(err, errWrite) {
		t.Errorf("writeOutput() error = %v, want %v", err, errWrite)
	}

	if err := writeOutput(filepath.Join(dir, "missing", "out.csv"), func(io.Writer) error { return nil }); err == nil {
		t.Error("writeOutput() into a missing directory should fail")
	}
}
