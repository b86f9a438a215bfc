package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestMemory_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := m.Put(ctx, "acme/q1", []byte(`{"title":"x"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "acme/q1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte(`{"title":"x"}`)) {
		t.Fatalf("Get = %s", got)
	}

	// overwrite is idempotent
	if err := m.Put(ctx, "acme/q1", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, _ = m.Get(ctx, "acme/q1")
	if string(got) != "v2" {
		t.Fatalf("overwrite failed: %s", got)
	}

	if err := m.Delete(ctx, "acme/q1"); err != nil {
		t.Fatal(err)
	}
	// deleting again succeeds
	if err := m.Delete(ctx, "acme/q1"); err != nil {
		t.Fatalf("second delete = %v", err)
	}
	if _, err := m.Get(ctx, "acme/q1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(ctx, "k", []byte("abc"))
	got, _ := m.Get(ctx, "k")
	got[0] = 'X'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatal("Get should return a defensive copy")
	}
}

func TestMemory_ListAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(ctx, "acme/q1/index.html", []byte("a"))
	m.Put(ctx, "acme/q1/style.css", []byte("b"))
	m.Put(ctx, "acme/q2/index.html", []byte("c"))
	m.Put(ctx, "_admin:abc", []byte("d"))

	keys, err := m.ListPrefix(ctx, "acme/q1/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("ListPrefix(acme/q1/) = %v", keys)
	}
	// sorted output
	if keys[0] != "acme/q1/index.html" || keys[1] != "acme/q1/style.css" {
		t.Fatalf("unexpected order: %v", keys)
	}

	n, err := m.DeletePrefix(ctx, "acme/q1/")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("DeletePrefix deleted %d, want 2", n)
	}
	// other keys untouched
	if _, err := m.Get(ctx, "acme/q2/index.html"); err != nil {
		t.Fatal("sibling site deleted")
	}
	// deleting an already-empty prefix succeeds with zero count
	n, err = m.DeletePrefix(ctx, "acme/q1/")
	if err != nil || n != 0 {
		t.Fatalf("second DeletePrefix = %d, %v", n, err)
	}
}

func TestMimeType(t *testing.T) {
	cases := map[string]string{
		"index.html":       "text/html; charset=utf-8",
		"a/b/style.css":    "text/css; charset=utf-8",
		"app.js":           "application/javascript; charset=utf-8",
		"data.json":        "application/json",
		"logo.png":         "image/png",
		"photo.jpg":        "image/jpeg",
		"photo.jpeg":       "image/jpeg",
		"icon.svg":         "image/svg+xml",
		"hero.webp":        "image/webp",
		"report.pdf":       "application/pdf",
		"font.woff2":       "font/woff2",
		"font.ttf":         "font/ttf",
		"archive.tar.gz":   "application/octet-stream",
		"noextension":      "application/octet-stream",
		"deep/dir/x.HTML":  "text/html; charset=utf-8",
		"trailingdot.":     "application/octet-stream",
		"deep/dir.with.dots/file.png": "image/png",
	}
	for p, want := range cases {
		if got := MimeType(p); got != want {
			t.Errorf("MimeType(%q) = %q, want %q", p, got, want)
		}
	}
}
