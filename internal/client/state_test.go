package client

import (
	"os"
	"path/filepath"
	"testing"
)

// TestStateSettings verifies values round-trip and survive reopening.
func TestStateSettings(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenStateDB(dir)
	if err != nil {
		t.Fatal(err)
	}

	if v, err := st.Get(KeyToken); err != nil || v != "" {
		t.Fatalf("Get(unset) = %q, %v; want empty", v, err)
	}
	if err := st.Set(KeyServerURL, "http://lightweight:8080"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(KeyToken, "abc"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(KeyToken, "def"); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = OpenStateDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if v, _ := st.Get(KeyToken); v != "def" {
		t.Errorf("token = %q, want %q", v, "def")
	}
	if v, _ := st.Get(KeyServerURL); v != "http://lightweight:8080" {
		t.Errorf("server_url = %q, want %q", v, "http://lightweight:8080")
	}
	if err := st.Delete(KeyToken); err != nil {
		t.Fatal(err)
	}
	if v, _ := st.Get(KeyToken); v != "" {
		t.Errorf("token after delete = %q, want empty", v)
	}
}

// TestImportedFiles verifies a file counts as imported only while its size
// and hash are unchanged.
func TestImportedFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenStateDB(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	path := filepath.Join(dir, "week1.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	hash, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}

	if ok, _ := st.IsImported(path, 2, hash); ok {
		t.Error("IsImported before mark = true")
	}
	if err := st.MarkImported(path, 2, hash); err != nil {
		t.Fatal(err)
	}
	if ok, _ := st.IsImported(path, 2, hash); !ok {
		t.Error("IsImported after mark = false")
	}
	if ok, _ := st.IsImported(path, 3, hash); ok {
		t.Error("IsImported with changed size = true")
	}
}
