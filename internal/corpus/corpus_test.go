package corpus

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, dir, source, split string, lines ...string) {
	t.Helper()
	body := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(Path(dir, source, split), []byte(body), 0o644))
}

func TestReadSourceLimit(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, "gen", SplitTrain,
		`{"text": "one", "id": 7}`,
		`{"text": "two"}`,
		`{"text": "three"}`,
	)

	texts, err := ReadSource(dir, "gen", SplitTrain, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)

	texts, err = ReadSource(dir, "gen", SplitTrain, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, texts)

	texts, err = ReadSource(dir, "gen", SplitTrain, 0)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestReadSourceStopsBeforeBadLines(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, "gen", SplitValid, `{"text": "ok"}`, `not json at all`)

	texts, err := ReadSource(dir, "gen", SplitValid, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, texts)

	_, err = ReadSource(dir, "gen", SplitValid, Unbounded)
	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadSourceMissingTextAndFile(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, "gen", SplitTest, `{"body": "no text"}`)

	_, err := ReadSource(dir, "gen", SplitTest, Unbounded)
	require.ErrorIs(t, err, ErrMissingText)

	_, err = ReadSource(dir, "absent", SplitTest, Unbounded)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadSourceWithoutTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir, "gen", SplitTest), []byte(`{"text":"a"}`+"\n"+`{"text":"b"}`), 0o644))

	texts, err := ReadSource(dir, "gen", SplitTest, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)
}

func TestLoadSplitLabels(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, WebText, SplitTrain, `{"text":"w1"}`, `{"text":"w2"}`, `{"text":"w3"}`)
	writeLines(t, dir, "gen", SplitTrain, `{"text":"g1"}`, `{"text":"g2"}`, `{"text":"g3"}`)

	for _, n := range []int{0, 1, 2, 3, 4, 5} {
		s, err := LoadSplit(dir, "gen", SplitTrain, n)
		require.NoError(t, err)
		half := n / 2
		require.Len(t, s.Labels, 2*half, "n=%d", n)
		require.Len(t, s.Texts, 2*half, "n=%d", n)
		for i, l := range s.Labels {
			if i < half {
				assert.Equal(t, LabelHuman, l)
			} else {
				assert.Equal(t, LabelGenerated, l)
			}
		}
	}

	s, err := LoadSplit(dir, "gen", SplitTrain, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2", "g1", "g2"}, s.Texts)
	assert.Equal(t, 2, s.Human)
	assert.Equal(t, 2, s.Generated())
}

func TestLoadSplitUnboundedAndUnderSupplied(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, WebText, SplitTest, `{"text":"w1"}`, `{"text":"w2"}`)
	writeLines(t, dir, "gen", SplitTest, `{"text":"g1"}`)

	s, err := LoadSplit(dir, "gen", SplitTest, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, s.Labels)

	s, err = LoadSplit(dir, "gen", SplitTest, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}

func TestLoadSplitMissingGeneratedSource(t *testing.T) {
	dir := t.TempDir()
	writeLines(t, dir, WebText, SplitTrain, `{"text":"w1"}`)

	_, err := LoadSplit(dir, "gen", SplitTrain, 2)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSegment(t *testing.T) {
	text := "a b c d e\nf g"
	assert.Equal(t, []string{"a b c", "d e f", "g"}, Segment(text, 3, 0))
	assert.Equal(t, []string{"a b c", "c d e", "e f g"}, Segment(text, 3, 1))
	assert.Nil(t, Segment("   ", 3, 0))
	assert.Nil(t, Segment(text, 0, 0))
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	texts := []string{"first <record>", "second\nline", `quoted "text"`}
	require.NoError(t, WriteJSONL(Path(dir, "book", SplitTest), texts))

	got, err := ReadSource(dir, "book", SplitTest, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, texts, got)
}

func TestParseFileDOCXAndText(t *testing.T) {
	dir := t.TempDir()
	docx := filepath.Join(dir, "chapter.docx")
	require.NoError(t, os.WriteFile(docx, buildDOCX(t,
		`<w:document><w:body><w:p><w:r><w:t>Chapter   1</w:t></w:r></w:p><w:p><w:r><w:t>Hello world.</w:t></w:r></w:p></w:body></w:document>`,
	), 0o644))

	doc, err := ParseFile(docx)
	require.NoError(t, err)
	assert.Equal(t, "chapter", doc.Name)
	assert.Equal(t, "Chapter 1\nHello world.", doc.Text)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("  some\n\n  notes  here "), 0o644))
	doc, err = ParseFile(txt)
	require.NoError(t, err)
	assert.Equal(t, "some\nnotes here", doc.Text)
}

func TestParseFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.odt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := ParseFile(path)
	require.ErrorIs(t, err, ErrUnsupportedDocument)
}

func buildDOCX(t *testing.T, bodyXML string) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + bodyXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return b.Bytes()
}
