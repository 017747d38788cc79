package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	t.Run("writes content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out.txt")
		err := WriteFile(path, 0644, func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		})
		if err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("content = %q, want %q", data, "hello")
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
		err := WriteFile(path, 0644, func(w io.Writer) error {
			_, err := io.WriteString(w, "new")
			return err
		})
		if err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "new" {
			t.Errorf("content = %q, want %q", data, "new")
		}
	})

	t.Run("failure leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.txt")
		boom := errors.New("boom")
		err := WriteFile(path, 0644, func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty directory, found %d entries", len(entries))
		}
	})
}

func TestWriteFilePermissions(t *testing.T) {
	tests := []struct {
		name string
		perm os.FileMode
	}{
		{"read only", 0444},
		{"owner only", 0600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			err := WriteFile(path, tt.perm, func(w io.Writer) error {
				_, err := io.WriteString(w, "x")
				return err
			})
			if err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			st, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if got := st.Mode().Perm(); got != tt.perm {
				t.Errorf("mode = %v, want %v", got, tt.perm)
			}
		})
	}
}

func TestWriteFileFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	err := WriteFile(path, 0644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "half written")
		return errors.New("interrupted")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("content = %q, want original content", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the original file, found %d entries", len(entries))
	}
}
