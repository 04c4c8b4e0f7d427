package buffer_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.followtheprocess.codes/bless/internal/buffer"
	"go.followtheprocess.codes/test"
)

func TestInsertAt(t *testing.T) {
	tests := []struct {
		name    string // Name of the test case
		text    string // Initial line content
		want    string // Expected content after the insert
		pos     int    // Position to insert at
		char    rune   // Character to insert
		wantErr bool   // Whether we want an error
	}{
		{
			name: "empty",
			text: "",
			pos:  0,
			char: 'x',
			want: "x",
		},
		{
			name: "start",
			text: "bc",
			pos:  0,
			char: 'a',
			want: "abc",
		},
		{
			name: "middle",
			text: "printf(x);",
			pos:  7,
			char: '"',
			want: `printf("x);`,
		},
		{
			name: "append",
			text: "abc",
			pos:  3,
			char: 'd',
			want: "abcd",
		},
		{
			name: "multibyte",
			text: "héllo",
			pos:  2,
			char: 'é',
			want: "hééllo",
		},
		{
			name:    "negative",
			text:    "abc",
			pos:     -1,
			char:    'x',
			want:    "abc",
			wantErr: true,
		},
		{
			name:    "past end",
			text:    "abc",
			pos:     4,
			char:    'x',
			want:    "abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := buffer.FromText(tt.text)
			before := line.Len()

			err := line.InsertAt(tt.pos, tt.char)
			test.WantErr(t, err, tt.wantErr)

			if err != nil {
				test.True(t, errors.Is(err, buffer.ErrOutOfRange), test.Context("error should wrap ErrOutOfRange"))
				test.Equal(t, line.Len(), before)
			} else {
				test.Equal(t, line.Len(), before+1)
			}

			test.Equal(t, line.String(), tt.want)
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name   string // Name of the test case
		text   string // Initial line content
		before string // Expected content after DeleteBefore(pos)
		after  string // Expected content after DeleteAfter(pos)
		pos    int    // Position to delete at
	}{
		{
			name:   "empty",
			text:   "",
			pos:    0,
			before: "",
			after:  "",
		},
		{
			name:   "start",
			text:   "abc",
			pos:    0,
			before: "abc",
			after:  "bc",
		},
		{
			name:   "middle",
			text:   "abc",
			pos:    1,
			before: "bc",
			after:  "ac",
		},
		{
			name:   "end",
			text:   "abc",
			pos:    3,
			before: "ab",
			after:  "abc",
		},
		{
			name:   "out of range",
			text:   "abc",
			pos:    12,
			before: "abc",
			after:  "abc",
		},
		{
			name:   "negative",
			text:   "abc",
			pos:    -3,
			before: "abc",
			after:  "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := buffer.FromText(tt.text)
			deleted := line.DeleteBefore(tt.pos)
			test.Equal(t, line.String(), tt.before)
			test.Equal(t, deleted, tt.before != tt.text)

			if deleted {
				test.Equal(t, line.Len(), utf8.RuneCountInString(tt.text)-1)
			}

			line = buffer.FromText(tt.text)
			deleted = line.DeleteAfter(tt.pos)
			test.Equal(t, line.String(), tt.after)
			test.Equal(t, deleted, tt.after != tt.text)
		})
	}
}

func TestBuildLine(t *testing.T) {
	// Type printf("x"); one character at a time around an existing x
	line := buffer.FromText("printf(x);")

	test.Ok(t, line.InsertAt(7, '"'))
	test.Ok(t, line.InsertAt(9, '"'))

	test.Equal(t, line.String(), `printf("x");`)
	test.Equal(t, line.Len(), 12)
}

func TestZeroValue(t *testing.T) {
	var line buffer.Line

	test.Equal(t, line.Len(), 0)
	test.Equal(t, line.String(), "")
	test.False(t, line.DeleteBefore(0))
	test.False(t, line.DeleteAfter(0))

	test.Ok(t, line.InsertAt(0, 'a'))
	test.Equal(t, line.String(), "a")
}

func TestUndecodableBytes(t *testing.T) {
	// Latin-1 é on its own is not valid UTF-8
	line := buffer.FromText("printf(\"caf\xe9\");")

	test.Equal(t, line.Len(), 15)
	test.Equal(t, line.String(), "printf(\"caf\xe9\");")

	// The undecodable byte is a character in its own right
	test.True(t, line.DeleteBefore(12))
	test.Equal(t, line.String(), `printf("caf");`)

	line.Set("caf\xe9")
	test.Ok(t, line.InsertAt(line.Len(), '!'))
	test.Equal(t, line.String(), "caf\xe9!")
	test.Equal(t, line.Len(), 5)
}

func FuzzRoundTrip(f *testing.F) {
	f.Add("")
	f.Add("printf(x);")
	f.Add("\tint main(void) {")
	f.Add("héllo wörld ✓")
	f.Add("caf\xe9")
	f.Add("\xff\xfe\xc3")

	f.Fuzz(func(t *testing.T, text string) {
		if strings.ContainsAny(text, "\r\n") {
			t.Skip()
		}

		line := buffer.FromText(text)

		// Property: fromText(s).toText() == s
		test.Equal(t, line.String(), text)

		// Property: size equals the number of characters held
		test.Equal(t, line.Len(), utf8.RuneCountInString(text))

		// Property: inserting then deleting at the same position is the identity
		pos := line.Len() / 2
		test.Ok(t, line.InsertAt(pos, 'x'))
		test.True(t, line.DeleteAfter(pos))
		test.Equal(t, line.String(), text)
	})
}
