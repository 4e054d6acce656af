// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package directive

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"go.astrophena.name/includer/testutil"
)

func TestApply(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in          []string
		want        []string
		wantChanged bool
		wantErr     error
	}{
		"replaces first blank line": {
			in:          []string{"int main() {", "", "return 0;", "}"},
			want:        []string{"int main() {", "#include <cassert>  //added by Zhou", "return 0;", "}"},
			wantChanged: true,
		},
		"already present": {
			in:   []string{"#include <cassert>", "", "int x;"},
			want: []string{"#include <cassert>", "", "int x;"},
		},
		"present with annotation": {
			in:   []string{"#include <cassert>  //added by Zhou", ""},
			want: []string{"#include <cassert>  //added by Zhou", ""},
		},
		"blank line first": {
			in:          []string{"", "int x;"},
			want:        []string{"#include <cassert>  //added by Zhou", "int x;"},
			wantChanged: true,
		},
		"whitespace is not blank": {
			in:      []string{"int x;", " ", "\t"},
			wantErr: ErrNoBlankLine,
		},
		"empty file": {
			in:      nil,
			wantErr: ErrNoBlankLine,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			orig := slices.Clone(tc.in)
			got, changed, err := Assert.Apply(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want error %v, got %v", tc.wantErr, err)
			}
			testutil.AssertEqual(t, tc.in, orig)
			if tc.wantErr != nil {
				return
			}
			testutil.AssertEqual(t, changed, tc.wantChanged)
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestApplyProperties(t *testing.T) {
	t.Parallel()

	inputs := [][]string{
		{""},
		{"a", "", "b"},
		{"", "", ""},
		{"#include <vector>", "", "", "int main() {}", ""},
		{"x", "y", "z", ""},
	}
	for _, d := range []Directive{Assert, Climits} {
		for _, in := range inputs {
			out, changed, err := d.Apply(in)
			if err != nil {
				t.Fatalf("%q.Apply(%q): %v", d.Text, in, err)
			}
			testutil.AssertEqual(t, changed, true)
			testutil.AssertEqual(t, len(out), len(in))
			testutil.AssertEqual(t, count(out, d.Line()), 1)

			// Applying again is a no-op.
			again, changed, err := d.Apply(out)
			if err != nil {
				t.Fatalf("second %q.Apply(%q): %v", d.Text, out, err)
			}
			testutil.AssertEqual(t, changed, false)
			testutil.AssertEqual(t, again, out)
		}
	}
}

func count(lines []string, s string) int {
	var n int
	for _, l := range lines {
		if l == s {
			n++
		}
	}
	return n
}

func TestSplitJoinLines(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in       string
		want     []string
		wantJoin string
	}{
		"empty":               {in: "", want: nil, wantJoin: ""},
		"single newline":      {in: "\n", want: []string{""}, wantJoin: "\n"},
		"terminated":          {in: "a\n\nb\n", want: []string{"a", "", "b"}, wantJoin: "a\n\nb\n"},
		"no final newline":    {in: "a\n\nb", want: []string{"a", "", "b"}, wantJoin: "a\n\nb\n"},
		"crlf":                {in: "a\r\n\r\nb\r\n", want: []string{"a", "", "b"}, wantJoin: "a\n\nb\n"},
		"trailing blank line": {in: "a\n\n", want: []string{"a", ""}, wantJoin: "a\n\n"},
		"lone cr":             {in: "a\r\rb\r", want: []string{"a", "", "b"}, wantJoin: "a\n\nb\n"},
		"mixed":               {in: "a\r\n\rb\nc", want: []string{"a", "", "b", "c"}, wantJoin: "a\n\nb\nc\n"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := SplitLines([]byte(tc.in))
			testutil.AssertEqual(t, got, tc.want)
			testutil.AssertEqual(t, string(JoinLines(got)), tc.wantJoin)
		})
	}
}

func TestEnsure(t *testing.T) {
	testutil.Run(t, "testdata/*.txtar", func(t *testing.T, match string) {
		ar := testutil.ReadTxtar(t, match)
		in := testutil.TxtarFile(t, ar, "in.cpp")

		path := filepath.Join(t.TempDir(), "in.cpp")
		if err := os.WriteFile(path, in, 0o644); err != nil {
			t.Fatal(err)
		}

		changed, err := Ensure(context.Background(), path, Assert, Options{})

		got, rerr := os.ReadFile(path)
		if rerr != nil {
			t.Fatal(rerr)
		}

		if wantErr, ok := txtarFile(ar, "error"); ok {
			if err == nil || !strings.Contains(err.Error(), strings.TrimSpace(string(wantErr))) {
				t.Fatalf("want error containing %q, got %v", wantErr, err)
			}
			if !errors.Is(err, ErrNoBlankLine) {
				t.Fatalf("want ErrNoBlankLine, got %v", err)
			}
			if !bytes.Equal(got, in) {
				t.Fatalf("file modified on error:\n%s", got)
			}
			return
		}
		if err != nil {
			t.Fatal(err)
		}

		want := testutil.TxtarFile(t, ar, "want.cpp")
		testutil.AssertEqual(t, string(got), string(want))
		testutil.AssertEqual(t, changed, !bytes.Equal(in, want))
	})
}

func txtarFile(ar *txtar.Archive, name string) ([]byte, bool) {
	for _, f := range ar.Files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cpp")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestEnsureFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.cpp")
		_, err := Ensure(ctx, path, Assert, Options{})
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("want fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("read-only file", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root can write to read-only files")
		}
		path := writeFile(t, "#include <cassert>\n")
		if err := os.Chmod(path, 0o444); err != nil {
			t.Fatal(err)
		}
		_, err := Ensure(ctx, path, Assert, Options{})
		if !errors.Is(err, fs.ErrPermission) {
			t.Fatalf("want fs.ErrPermission, got %v", err)
		}
	})

	t.Run("crlf", func(t *testing.T) {
		path := writeFile(t, "int f();\r\n\r\n")
		changed, err := Ensure(ctx, path, Climits, Options{})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, changed, true)
		testutil.AssertEqual(t, readFile(t, path), "int f();\n#include <climits>  //added by Zhou\n")
	})

	t.Run("lone cr", func(t *testing.T) {
		path := writeFile(t, "int f();\r\rint g();\r")
		_, err := Ensure(ctx, path, Assert, Options{})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path), "int f();\n#include <cassert>  //added by Zhou\nint g();\n")
	})

	t.Run("symlink", func(t *testing.T) {
		target := writeFile(t, "int main() {\n\nreturn 0;\n}\n")
		link := filepath.Join(t.TempDir(), "link.cpp")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}
		changed, err := Ensure(ctx, link, Assert, Options{})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, changed, true)
		testutil.AssertEqual(t, readFile(t, target), "int main() {\n#include <cassert>  //added by Zhou\nreturn 0;\n}\n")
		fi, err := os.Lstat(link)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, fi.Mode()&fs.ModeSymlink != 0, true)
	})

	t.Run("hard link", func(t *testing.T) {
		path := writeFile(t, "\nint x;\n")
		other := filepath.Join(filepath.Dir(path), "other.cpp")
		if err := os.Link(path, other); err != nil {
			t.Skipf("hard links not supported: %v", err)
		}
		if _, err := Ensure(ctx, path, Climits, Options{}); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, readFile(t, other), "#include <climits>  //added by Zhou\nint x;\n")
	})

	t.Run("read-only directory", func(t *testing.T) {
		path := writeFile(t, "\nint x;\n")
		dir := filepath.Dir(path)
		if err := os.Chmod(dir, 0o555); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chmod(dir, 0o755) })
		if _, err := Ensure(ctx, path, Assert, Options{}); err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, readFile(t, path), "#include <cassert>  //added by Zhou\nint x;\n")
	})

	t.Run("no final newline", func(t *testing.T) {
		path := writeFile(t, "int a;\n\nint b;")
		_, err := Ensure(ctx, path, Assert, Options{})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, readFile(t, path), "int a;\n#include <cassert>  //added by Zhou\nint b;\n")
	})

	t.Run("present file is not rewritten", func(t *testing.T) {
		// No final newline: a rewrite would add one.
		const content = "#include <climits>\nint x;"
		path := writeFile(t, content)
		changed, err := Ensure(ctx, path, Climits, Options{})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, changed, false)
		testutil.AssertEqual(t, readFile(t, path), content)
	})

	t.Run("dry run", func(t *testing.T) {
		const content = "int main() {\n\nreturn 0;\n}\n"
		path := writeFile(t, content)
		changed, err := Ensure(ctx, path, Assert, Options{DryRun: true})
		testutil.AssertEqual(t, err, nil)
		testutil.AssertEqual(t, changed, true)
		testutil.AssertEqual(t, readFile(t, path), content)
	})

	t.Run("idempotent", func(t *testing.T) {
		path := writeFile(t, "int main() {\n\nreturn 0;\n}\n")
		for range 2 {
			if _, err := Ensure(ctx, path, Assert, Options{}); err != nil {
				t.Fatal(err)
			}
		}
		testutil.AssertEqual(t, readFile(t, path), "int main() {\n#include <cassert>  //added by Zhou\nreturn 0;\n}\n")
	})
}
