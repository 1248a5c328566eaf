package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFile(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "test.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fail.txt")
	err := downloadFile(context.Background(), ts.URL, dest)
	if err == nil {
		t.Error("expected error after all retries exhausted")
	}
}

func TestFetchSource_LocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odi.csv")
	if err := os.WriteFile(path, []byte("name\nBiotin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, src := range []string{path, "file://" + path} {
		data, err := fetchSource(context.Background(), src)
		if err != nil {
			t.Fatalf("fetchSource(%q): %v", src, err)
		}
		if string(data) != "name\nBiotin\n" {
			t.Errorf("fetchSource(%q) = %q", src, data)
		}
	}
}

func TestFetchSource_Empty(t *testing.T) {
	if _, err := fetchSource(context.Background(), ""); !errors.Is(err, ErrNoSourceURL) {
		t.Fatalf("expected ErrNoSourceURL, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("Café"), "Café"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "Café"...), "Café"},
		{"windows-1252", []byte("Caf\xe9 \x96 Cr\xe8me"), "Café – Crème"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.in, "windows-1252")
			if err != nil {
				t.Fatalf("decodeText: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := decodeText([]byte{0xff, 0xfe}, "no-such-charset"); err == nil {
		t.Error("expected error for unknown charset")
	}
}

func TestHeaderKey(t *testing.T) {
	tests := map[string]string{
		"GRN No.":            "grn no",
		"FDA's Letter":       "fda s letter",
		"  Ingredient Name ": "ingredient name",
		"Report #":           "report",
	}
	for in, want := range tests {
		if got := headerKey(in); got != want {
			t.Errorf("headerKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" ascorbic acid; sodium ascorbate |calcium ascorbate;; ")
	want := []string{"ascorbic acid", "sodium ascorbate", "calcium ascorbate"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
