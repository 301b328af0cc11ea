package fsutil

import (
	"testing"
)

func TestSafeJoinRejectsAbsolute(t *testing.T) {
	if _, err := SafeJoin("/srv/quickft", "/etc/passwd"); err == nil {
		t.Fatal("expected SafeJoin to reject an absolute path")
	}
}

func TestSafeJoinRejectsParentEscape(t *testing.T) {
	cases := []string{"../secret", "a/../../secret", "a/b/../../../secret"}
	for _, rel := range cases {
		if _, err := SafeJoin("/srv/quickft", rel); err == nil {
			t.Fatalf("expected SafeJoin(%q) to reject an escaping path", rel)
		}
	}
}

func TestSafeJoinAcceptsPlainRelative(t *testing.T) {
	got, err := SafeJoin("/srv/quickft", "a/b/c.txt")
	if err != nil {
		t.Fatalf("SafeJoin: %v", err)
	}
	want := "/srv/quickft/a/b/c.txt"
	if got != want {
		t.Fatalf("SafeJoin = %q, want %q", got, want)
	}
}

func TestSafeJoinAcceptsInnocuousDotDotThatStaysInRoot(t *testing.T) {
	got, err := SafeJoin("/srv/quickft", "a/b/../c.txt")
	if err != nil {
		t.Fatalf("SafeJoin: %v", err)
	}
	want := "/srv/quickft/a/c.txt"
	if got != want {
		t.Fatalf("SafeJoin = %q, want %q", got, want)
	}
}

func TestExistsAndCopyAndRemoveOnMemFS(t *testing.T) {
	fs := NewMem()
	if exists, err := fs.Exists("/a.txt"); err != nil || exists {
		t.Fatalf("Exists on missing file = (%v, %v), want (false, nil)", exists, err)
	}

	if err := fs.MkdirAllFor("/dir/a.txt"); err != nil {
		t.Fatalf("MkdirAllFor: %v", err)
	}
	if err := afero_writeFile(fs, "/dir/a.txt", []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	exists, err := fs.Exists("/dir/a.txt")
	if err != nil || !exists {
		t.Fatalf("Exists = (%v, %v), want (true, nil)", exists, err)
	}

	if err := fs.CopyFile("/dir/a.txt", "/dir/a.bkp"); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	exists, err = fs.Exists("/dir/a.bkp")
	if err != nil || !exists {
		t.Fatalf("Exists(backup) = (%v, %v), want (true, nil)", exists, err)
	}

	if err := fs.RemoveFile("/dir/a.txt"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	exists, err = fs.Exists("/dir/a.txt")
	if err != nil || exists {
		t.Fatalf("Exists after remove = (%v, %v), want (false, nil)", exists, err)
	}

	if err := fs.RemoveFile("/dir/already-gone.txt"); err != nil {
		t.Fatalf("RemoveFile on missing file should not error: %v", err)
	}
}

func TestHasContentTreatsZeroByteFileAsEmptyButExistsDoesNot(t *testing.T) {
	fs := NewMem()
	if err := fs.MkdirAllFor("/dir/empty.txt"); err != nil {
		t.Fatalf("MkdirAllFor: %v", err)
	}
	if err := afero_writeFile(fs, "/dir/empty.txt", nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	exists, err := fs.Exists("/dir/empty.txt")
	if err != nil || !exists {
		t.Fatalf("Exists(zero-byte file) = (%v, %v), want (true, nil)", exists, err)
	}

	hasContent, err := fs.HasContent("/dir/empty.txt")
	if err != nil || hasContent {
		t.Fatalf("HasContent(zero-byte file) = (%v, %v), want (false, nil)", hasContent, err)
	}

	if err := afero_writeFile(fs, "/dir/empty.txt", []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	hasContent, err = fs.HasContent("/dir/empty.txt")
	if err != nil || !hasContent {
		t.Fatalf("HasContent(non-empty file) = (%v, %v), want (true, nil)", hasContent, err)
	}
}

func afero_writeFile(fs FS, path string, data []byte) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
