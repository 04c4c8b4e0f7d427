package patch_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.followtheprocess.codes/bless/internal/diagnostic"
	"go.followtheprocess.codes/bless/internal/diagnostic/diagnostictest"
	"go.followtheprocess.codes/bless/internal/patch"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

// edit describes a record to put in a store, unedited if text equals original.
type edit struct {
	file     string // File name, relative to the test's temp dir
	original string // Source line as the compiler echoed it
	text     string // Text of the buffer
	line     int    // Line number
}

// storeOf builds a store with one record per edit, files resolved against dir.
func storeOf(dir string, edits ...edit) *diagnostic.Store {
	store := diagnostic.NewStore()

	for i, e := range edits {
		record := diagnostic.New(
			i+1,
			"",
			diagnostic.Position{File: filepath.Join(dir, e.file), Line: e.line, Column: 1},
			"error: something",
		)
		record.SetSource(e.original)
		record.Buffer().Set(e.text)

		store.Add(record)
	}

	return store
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string // Name of the test case
		contents string // Contents of foo.c before applying
		want     string // Expected contents of foo.c after applying
		edits    []edit // Records in the store, all in foo.c
	}{
		{
			name:     "single line",
			contents: "line 1\nline 2\nprintf(x);\nline 4\nline 5\n",
			edits: []edit{
				{file: "foo.c", line: 3, original: "printf(x);", text: `printf("x");`},
			},
			want: "line 1\nline 2\nprintf(\"x\");\nline 4\nline 5\n",
		},
		{
			name:     "first line",
			contents: diagnostictest.Lines(3),
			edits: []edit{
				{file: "foo.c", line: 1, original: "line 1", text: "first"},
			},
			want: "first\nline 2\nline 3\n",
		},
		{
			name:     "unterminated last line",
			contents: "line 1\nline 2",
			edits: []edit{
				{file: "foo.c", line: 2, original: "line 2", text: "last"},
			},
			want: "line 1\nlast",
		},
		{
			name:     "crlf",
			contents: "line 1\r\nline 2\r\nline 3\r\n",
			edits: []edit{
				{file: "foo.c", line: 2, original: "line 2", text: "middle"},
			},
			want: "line 1\r\nmiddle\r\nline 3\r\n",
		},
		{
			name:     "mixed terminators",
			contents: "line 1\r\nline 2\nline 3\r\n",
			edits: []edit{
				{file: "foo.c", line: 1, original: "line 1", text: "one"},
				{file: "foo.c", line: 2, original: "line 2", text: "two"},
			},
			want: "one\r\ntwo\nline 3\r\n",
		},
		{
			name:     "out of order",
			contents: diagnostictest.Lines(5),
			edits: []edit{
				{file: "foo.c", line: 4, original: "line 4", text: "four"},
				{file: "foo.c", line: 2, original: "line 2", text: "two"},
			},
			want: "line 1\ntwo\nline 3\nfour\nline 5\n",
		},
		{
			name:     "unedited records are not written",
			contents: "line 1\n\tline 2\nline 3\n",
			edits: []edit{
				// gcc expands tabs when echoing, writing this back would lose the tab
				{file: "foo.c", line: 2, original: "        line 2", text: "        line 2"},
				{file: "foo.c", line: 3, original: "line 3", text: "three"},
			},
			want: "line 1\n\tline 2\nthree\n",
		},
		{
			name:     "same line twice",
			contents: diagnostictest.Lines(3),
			edits: []edit{
				{file: "foo.c", line: 2, original: "line 2", text: "first go"},
				{file: "foo.c", line: 2, original: "line 2", text: "second go"},
			},
			want: "line 1\nsecond go\nline 3\n",
		},
		{
			name:     "emptied line",
			contents: diagnostictest.Lines(3),
			edits: []edit{
				{file: "foo.c", line: 2, original: "line 2", text: ""},
			},
			want: "line 1\n\nline 3\n",
		},
		{
			name:     "long lines",
			contents: strings.Repeat("a", 1000) + "\n" + strings.Repeat("b", 1000) + "\n" + strings.Repeat("c", 1000) + "\n",
			edits: []edit{
				{file: "foo.c", line: 2, original: strings.Repeat("b", 1000), text: strings.Repeat("d", 500)},
			},
			want: strings.Repeat("a", 1000) + "\n" + strings.Repeat("d", 500) + "\n" + strings.Repeat("c", 1000) + "\n",
		},
		{
			name:     "utf8",
			contents: "// héllo\nchar *s = \"wörld\";\n",
			edits: []edit{
				{file: "foo.c", line: 2, original: `char *s = "wörld";`, text: `const char *s = "wörld";`},
			},
			want: "// héllo\nconst char *s = \"wörld\";\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			dir := t.TempDir()
			path := diagnostictest.WriteFile(t, dir, "foo.c", tt.contents)

			store := storeOf(dir, tt.edits...)

			result, err := patch.New().Apply(t.Context(), store)
			test.Ok(t, err)

			test.EqualFunc(t, result.Written, []string{path}, slices.Equal[[]string])
			test.Diff(t, diagnostictest.ReadFile(t, path), tt.want)

			// Line count never changes
			test.Equal(t, strings.Count(diagnostictest.ReadFile(t, path), "\n"), strings.Count(tt.contents, "\n"))
		})
	}
}

func TestApplyNothingEdited(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", diagnostictest.Lines(3))

	store := storeOf(dir, edit{file: "foo.c", line: 2, original: "line 2", text: "line 2"})

	result, err := patch.New().Apply(t.Context(), store)
	test.Ok(t, err)

	test.Equal(t, len(result.Written), 0)
	test.Diff(t, diagnostictest.ReadFile(t, path), diagnostictest.Lines(3))
}

func TestApplyEmptyStore(t *testing.T) {
	result, err := patch.New().Apply(t.Context(), diagnostic.NewStore())
	test.Ok(t, err)
	test.Equal(t, len(result.Written), 0)
}

func TestApplyIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", diagnostictest.Lines(5))

	store := storeOf(dir, edit{file: "foo.c", line: 3, original: "line 3", text: "three"})
	writer := patch.New()

	_, err := writer.Apply(t.Context(), store)
	test.Ok(t, err)

	first := diagnostictest.ReadFile(t, path)

	_, err = writer.Apply(t.Context(), store)
	test.Ok(t, err)

	test.Diff(t, diagnostictest.ReadFile(t, path), first)
}

func TestApplyLineOutOfRange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	ok := diagnostictest.WriteFile(t, dir, "ok.c", diagnostictest.Lines(5))
	short := diagnostictest.WriteFile(t, dir, "short.c", diagnostictest.Lines(2))

	store := storeOf(dir,
		edit{file: "ok.c", line: 1, original: "line 1", text: "changed"},
		edit{file: "short.c", line: 4, original: "line 4", text: "changed"},
	)

	result, err := patch.New().Apply(t.Context(), store)
	test.Err(t, err)
	test.True(t, errors.Is(err, patch.ErrLineOutOfRange), test.Context("wrong error: %v", err))

	// Preflight failed so nothing may be written, not even the valid file
	test.Equal(t, len(result.Written), 0)
	test.Diff(t, diagnostictest.ReadFile(t, ok), diagnostictest.Lines(5))
	test.Diff(t, diagnostictest.ReadFile(t, short), diagnostictest.Lines(2))
}

func TestApplyMissingFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := storeOf(dir, edit{file: "missing.c", line: 1, original: "x", text: "y"})

	_, err := patch.New().Apply(t.Context(), store)
	test.Err(t, err)
	test.True(t, errors.Is(err, fs.ErrNotExist), test.Context("wrong error: %v", err))
}

func TestApplyMultipleFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	a := diagnostictest.WriteFile(t, dir, "a.c", diagnostictest.Lines(3))
	b := diagnostictest.WriteFile(t, dir, "nested/b.h", diagnostictest.Lines(3))
	c := diagnostictest.WriteFile(t, dir, "c.c", diagnostictest.Lines(3))

	store := storeOf(dir,
		edit{file: "nested/b.h", line: 3, original: "line 3", text: "b3"},
		edit{file: "a.c", line: 2, original: "line 2", text: "a2"},
		edit{file: "nested/b.h", line: 1, original: "line 1", text: "b1"},
		edit{file: "c.c", line: 1, original: "line 1", text: "line 1"},
	)

	result, err := patch.New().Apply(t.Context(), store)
	test.Ok(t, err)

	// First appearance order, c.c had no edits
	test.EqualFunc(t, result.Written, []string{b, a}, slices.Equal[[]string])

	test.Diff(t, diagnostictest.ReadFile(t, a), "line 1\na2\nline 3\n")
	test.Diff(t, diagnostictest.ReadFile(t, b), "b1\nline 2\nb3\n")
	test.Diff(t, diagnostictest.ReadFile(t, c), diagnostictest.Lines(3))
}

func TestApplyStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := diagnostictest.WriteFile(t, dir, "a.c", diagnostictest.Lines(2))
	b := diagnostictest.WriteFile(t, dir, "b.c", diagnostictest.Lines(2))
	c := diagnostictest.WriteFile(t, dir, "c.c", diagnostictest.Lines(2))

	// A directory in the way of b.c's temporary file
	test.Ok(t, os.Mkdir(b+patch.DefaultSuffix, 0o755))

	store := storeOf(dir,
		edit{file: "a.c", line: 1, original: "line 1", text: "a"},
		edit{file: "b.c", line: 1, original: "line 1", text: "b"},
		edit{file: "c.c", line: 1, original: "line 1", text: "c"},
	)

	result, err := patch.New().Apply(t.Context(), store)
	test.Err(t, err)
	test.True(t, strings.Contains(err.Error(), b), test.Context("error %q does not mention %s", err, b))

	// a.c stays written, c.c is never reached
	test.EqualFunc(t, result.Written, []string{a}, slices.Equal[[]string])
	test.Diff(t, diagnostictest.ReadFile(t, a), "a\nline 2\n")
	test.Diff(t, diagnostictest.ReadFile(t, b), diagnostictest.Lines(2))
	test.Diff(t, diagnostictest.ReadFile(t, c), diagnostictest.Lines(2))
}

func TestApplyPermissions(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "script.c", diagnostictest.Lines(2))
	test.Ok(t, os.Chmod(path, 0o750))

	store := storeOf(dir, edit{file: "script.c", line: 1, original: "line 1", text: "one"})

	_, err := patch.New().Apply(t.Context(), store)
	test.Ok(t, err)

	info, err := os.Stat(path)
	test.Ok(t, err)
	test.Equal(t, info.Mode().Perm(), fs.FileMode(0o750))
}

func TestApplyNoTemporaryFilesLeft(t *testing.T) {
	dir := t.TempDir()
	diagnostictest.WriteFile(t, dir, "foo.c", diagnostictest.Lines(2))

	store := storeOf(dir, edit{file: "foo.c", line: 1, original: "line 1", text: "one"})

	_, err := patch.New(patch.Suffix(".custom~")).Apply(t.Context(), store)
	test.Ok(t, err)

	entries, err := os.ReadDir(dir)
	test.Ok(t, err)

	test.Equal(t, len(entries), 1)
	test.Equal(t, entries[0].Name(), "foo.c")
}

func TestApplyCancelled(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", diagnostictest.Lines(2))

	store := storeOf(dir, edit{file: "foo.c", line: 1, original: "line 1", text: "one"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := patch.New().Apply(ctx, store)
	test.Err(t, err)
	test.Diff(t, diagnostictest.ReadFile(t, path), diagnostictest.Lines(2))
}

func TestFill(t *testing.T) {
	dir := t.TempDir()
	diagnostictest.WriteFile(t, dir, "foo.c", "int main(void) {\n\tint x\r\n}\n")

	store := diagnostic.NewStore()

	echoed := diagnostic.New(1, "", diagnostic.Position{File: filepath.Join(dir, "foo.c"), Line: 1}, "error: echoed")
	echoed.SetSource("echoed by the compiler")
	store.Add(echoed)

	bare := diagnostic.New(2, "", diagnostic.Position{File: filepath.Join(dir, "foo.c"), Line: 2}, "error: bare")
	store.Add(bare)

	test.Ok(t, patch.Fill(store))

	// Sources that were echoed are left alone
	test.Equal(t, echoed.Original, "echoed by the compiler")

	test.True(t, bare.HasSource)
	test.Equal(t, bare.Original, "\tint x")
	test.Equal(t, bare.Text(), "\tint x")
	test.False(t, bare.Edited())
}

func TestFillExpandedTabs(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", "int main(void) {\n\tint x\n\tif (x)\t{ printf(x); }\n}\n")

	store := diagnostic.NewStore()

	// As the compiler quotes them, tabs expanded to the next multiple of 8
	quoted := diagnostic.New(1, "", diagnostic.Position{File: path, Line: 3, Column: 19}, "error: 'x' undeclared")
	quoted.SetSource("        if (x)  { printf(x); }")
	store.Add(quoted)

	edited := diagnostic.New(2, "", diagnostic.Position{File: path, Line: 2, Column: 9}, "error: expected ';'")
	edited.SetSource("        int x")
	test.Ok(t, edited.Buffer().InsertAt(edited.Buffer().Len(), ';'))
	store.Add(edited)

	// The file no longer matches, nothing to be done about it
	stale := diagnostic.New(3, "", diagnostic.Position{File: path, Line: 1}, "error: stale")
	stale.SetSource("int main(int argc) {")
	store.Add(stale)

	// Already has its source, so an unreadable file is no problem
	gone := diagnostic.New(4, "", diagnostic.Position{File: filepath.Join(dir, "gone.c"), Line: 1}, "error: gone")
	gone.SetSource("        int y")
	store.Add(gone)

	test.Ok(t, patch.Fill(store))

	test.Equal(t, quoted.Original, "\tif (x)\t{ printf(x); }")
	test.Equal(t, quoted.Text(), "\tif (x)\t{ printf(x); }")
	test.False(t, quoted.Edited())

	test.Equal(t, edited.Original, "        int x")
	test.Equal(t, edited.Text(), "        int x;")

	test.Equal(t, stale.Original, "int main(int argc) {")
	test.Equal(t, gone.Original, "        int y")

	test.Ok(t, quoted.Buffer().InsertAt(quoted.Buffer().Len(), ' '))

	_, err := patch.New().Apply(t.Context(), store)
	test.Ok(t, err)

	// Tabs of the quoted line survive, the edited one was already spaces before Fill ran
	test.Diff(t, diagnostictest.ReadFile(t, path), "int main(void) {\n        int x;\n\tif (x)\t{ printf(x); } \n}\n")
}

func TestApplyUndecodableBytes(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", "int main(void) {\n    printf(\"caf\xe9\")\n}\n")

	record := diagnostic.New(1, "", diagnostic.Position{File: path, Line: 2, Column: 19}, "error: expected ';'")
	record.SetSource("    printf(\"caf\xe9\")")
	test.False(t, record.Edited())

	test.Ok(t, record.Buffer().InsertAt(record.Buffer().Len(), ';'))
	test.Equal(t, record.Text(), "    printf(\"caf\xe9\");")

	store := diagnostic.NewStore()
	store.Add(record)

	_, err := patch.New().Apply(t.Context(), store)
	test.Ok(t, err)

	test.Diff(t, diagnostictest.ReadFile(t, path), "int main(void) {\n    printf(\"caf\xe9\");\n}\n")
}

func TestFillErrors(t *testing.T) {
	dir := t.TempDir()
	diagnostictest.WriteFile(t, dir, "short.c", diagnostictest.Lines(2))
	diagnostictest.WriteFile(t, dir, "fine.c", diagnostictest.Lines(2))

	store := diagnostic.NewStore()

	missing := diagnostic.New(1, "", diagnostic.Position{File: filepath.Join(dir, "missing.c"), Line: 1}, "error: missing")
	beyond := diagnostic.New(2, "", diagnostic.Position{File: filepath.Join(dir, "short.c"), Line: 10}, "error: beyond")
	fine := diagnostic.New(3, "", diagnostic.Position{File: filepath.Join(dir, "fine.c"), Line: 2}, "error: fine")

	store.Add(missing)
	store.Add(beyond)
	store.Add(fine)

	err := patch.Fill(store)
	test.Err(t, err)
	test.True(t, errors.Is(err, fs.ErrNotExist), test.Context("missing file not reported: %v", err))
	test.True(t, errors.Is(err, patch.ErrLineOutOfRange), test.Context("short file not reported: %v", err))

	test.False(t, missing.HasSource)
	test.False(t, beyond.HasSource)

	// Failures elsewhere don't stop the rest
	test.True(t, fine.HasSource)
	test.Equal(t, fine.Original, "line 2")
}

func TestStage(t *testing.T) {
	store := storeOf("",
		edit{file: "foo.c", line: 3, original: "printf(x);", text: "printf(x);"},
		edit{file: "bar.h", line: 1, original: "int y", text: "int y"},
	)

	err := patch.Stage(store, []patch.Edit{
		{File: "foo.c", Line: 3, Text: `printf("x");`},
		{File: "bar.h", Line: 1, Text: "int y;"},
	})
	test.Ok(t, err)

	first, _ := store.At(0)
	second, _ := store.At(1)

	test.Equal(t, first.Text(), `printf("x");`)
	test.Equal(t, second.Text(), "int y;")
	test.Equal(t, len(store.Edited()), 2)
}

func TestStageNoRecord(t *testing.T) {
	store := storeOf("", edit{file: "foo.c", line: 3, original: "printf(x);", text: "printf(x);"})

	err := patch.Stage(store, []patch.Edit{
		{File: "foo.c", Line: 3, Text: "changed"},
		{File: "foo.c", Line: 4, Text: "nope"},
	})
	test.Err(t, err)
	test.True(t, errors.Is(err, patch.ErrNoRecord), test.Context("wrong error: %v", err))
	test.True(t, strings.Contains(err.Error(), "foo.c:4"))

	// All or nothing
	test.Equal(t, len(store.Edited()), 0)
}

func TestWordDiff(t *testing.T) {
	tests := []struct {
		name     string // Name of the test case
		original string // Original line
		edited   string // Edited line
		want     string // Expected word diff
	}{
		{
			name:     "unchanged",
			original: "int x = 1;",
			edited:   "int x = 1;",
			want:     "int x = 1;",
		},
		{
			name:     "replaced",
			original: "int x = 1;",
			edited:   "int y = 1;",
			want:     "int [-x-]{+y+} = 1;",
		},
		{
			name:     "appended",
			original: "return 0",
			edited:   "return 0;",
			want:     "return 0{+;+}",
		},
		{
			name:     "cleared",
			original: "junk",
			edited:   "",
			want:     "[-junk-]",
		},
		{
			name:     "from nothing",
			original: "",
			edited:   "int x;",
			want:     "{+int x;+}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, patch.WordDiff(tt.original, tt.edited), tt.want)
		})
	}
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	path := diagnostictest.WriteFile(t, dir, "foo.c", "int x = 1;\nreturn 0\n")

	store := storeOf(dir,
		edit{file: "foo.c", line: 1, original: "int x = 1;", text: "int y = 1;"},
		edit{file: "foo.c", line: 2, original: "return 0", text: "return 0"},
	)

	out := &strings.Builder{}
	count := patch.Preview(out, store)

	test.Equal(t, count, 1)
	test.Diff(t, out.String(), filepath.Join(dir, "foo.c")+":1\n    int [-x-]{+y+} = 1;\n")

	// A preview never writes
	test.Diff(t, diagnostictest.ReadFile(t, path), "int x = 1;\nreturn 0\n")
}

func BenchmarkApply(b *testing.B) {
	dir := b.TempDir()
	diagnostictest.WriteFile(b, dir, "big.c", diagnostictest.Lines(10000))

	var edits []edit
	for i := 1; i <= 10000; i += 100 {
		edits = append(edits, edit{file: "big.c", line: i, original: "x", text: "y"})
	}

	store := storeOf(dir, edits...)
	writer := patch.New()

	for b.Loop() {
		_, err := writer.Apply(b.Context(), store)
		test.Ok(b, err)
	}
}
