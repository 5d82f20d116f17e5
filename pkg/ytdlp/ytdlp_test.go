package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes a shell script standing in for yt-dlp
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestClient_FlatPlaylist(t *testing.T) {
	bin := fakeBinary(t, `cat <<'JSON'
{"id":"UC1","uploader":"Savvy","entries":[
 {"id":"aaa","title":"First","url":"https://www.youtube.com/watch?v=aaa","upload_date":"20261018"},
 {"id":"bbb","title":"Second","url":"https://www.youtube.com/watch?v=bbb"}
]}
JSON
`)
	client := New(Options{Path: bin})

	playlist, err := client.FlatPlaylist(context.Background(), "https://www.youtube.com/@x/videos", 10)
	require.NoError(t, err)
	assert.Equal(t, "Savvy", playlist.UploaderName())
	require.Len(t, playlist.Entries, 2)
	assert.Equal(t, "aaa", playlist.Entries[0].ID)
	assert.Equal(t, "", playlist.Entries[1].UploadDate)
}

func TestClient_CommandFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'ERROR: Video unavailable' >&2\nexit 1\n")
	client := New(Options{Path: bin})

	_, err := client.Metadata(context.Background(), "https://www.youtube.com/watch?v=zzz")
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "metadata", cmdErr.Operation)
	assert.Contains(t, cmdErr.Stderr, "Video unavailable")
}

func TestClient_DownloadAudio(t *testing.T) {
	dir := t.TempDir()
	bin := fakeBinary(t, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
path=$(echo "$out" | sed 's/%(ext)s/m4a/')
printf 'audio-bytes' > "$path"
echo "$path"
`)
	client := New(Options{Path: bin})

	path, err := client.DownloadAudio(context.Background(), "https://www.youtube.com/watch?v=abc", dir, "audio", "https://www.youtube.com/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audio.m4a"), path)
}

func TestClient_DownloadAudio_NoOutput(t *testing.T) {
	bin := fakeBinary(t, "exit 0\n")
	client := New(Options{Path: bin})

	_, err := client.DownloadAudio(context.Background(), "https://www.youtube.com/watch?v=abc", t.TempDir(), "audio", "")
	assert.ErrorIs(t, err, ErrNoOutputFile)
}

func TestClient_CommonArgs(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")

	client := New(Options{UserAgent: "UA", CookiesFile: cookies})
	assert.Equal(t, []string{"--user-agent", "UA"}, client.commonArgs())

	require.NoError(t, os.WriteFile(cookies, []byte("# Netscape HTTP Cookie File"), 0600))
	assert.Equal(t, []string{"--user-agent", "UA", "--cookies", cookies}, client.commonArgs())
}

func TestEntry_UploadDay(t *testing.T) {
	e := Entry{UploadDate: "20261018"}
	day, ok := e.UploadDay(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), day)

	_, ok = (&Entry{}).UploadDay(time.UTC)
	assert.False(t, ok)

	_, ok = (&Entry{UploadDate: "bogus"}).UploadDay(time.UTC)
	assert.False(t, ok)
}
