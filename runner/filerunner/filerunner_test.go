package filerunner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseReleasesInputAndResultsFiles(t *testing.T) {
	dir := t.TempDir()

	in, err := os.Create(filepath.Join(dir, "handles.txt"))
	require.NoError(t, err)

	out, err := os.Create(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)

	r := &fileRunner{
		input:   in,
		outfile: out,
	}

	require.NoError(t, r.Close(context.Background()))

	require.ErrorIs(t, in.Close(), os.ErrClosed)
	require.ErrorIs(t, out.Close(), os.ErrClosed)
}

func TestCloseLeavesStdinOpen(t *testing.T) {
	r := &fileRunner{
		input: os.Stdin,
	}

	require.NoError(t, r.Close(context.Background()))

	_, err := os.Stdin.Stat()
	require.NoError(t, err)
}

func TestReadHandlesSkipsBlanksAndComments(t *testing.T) {
	input := strings.NewReader("alice\n\n# a note\n  bob  \nhttps://www.linkedin.com/in/carol/\n")

	handles, err := readHandles(input)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "https://www.linkedin.com/in/carol/"}, handles)
}
