package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Title string `json:"title"`
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, item{Title: "a"}))
	require.NoError(t, WriteLine(&buf, item{Title: "b"}))

	assert.Equal(t, "{\"title\":\"a\"}\n{\"title\":\"b\"}\n", buf.String())
}

func TestWriteLine_Unencodable(t *testing.T) {
	err := WriteLine(&bytes.Buffer{}, make(chan int))
	assert.ErrorContains(t, err, "encode json line")
}

func TestDecode(t *testing.T) {
	got, err := Decode[[]item](strings.NewReader(`[{"title":"x"},{"title":"y"}]`))
	require.NoError(t, err)
	assert.Equal(t, []item{{"x"}, {"y"}}, got)

	_, err = Decode[[]item](strings.NewReader(`{"title":`))
	assert.Error(t, err)
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"from file"}]`), 0o644))

	var fr FileReader[[]item]
	fr.SetFile(path)
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, []item{{"from file"}}, got)

	fr.SetFile(filepath.Join(t.TempDir(), "missing.json"))
	_, err = fr.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileReader_Stdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"piped"}]`), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	fr := FileReader[[]item]{Stdin: f}
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, []item{{"piped"}}, got)
}
