package ytdlp

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrBinaryNotFound = errors.New("yt-dlp binary not found")
	ErrNoOutputFile   = errors.New("yt-dlp did not produce an output file")
)

// Entry is one video as reported by yt-dlp's JSON output
type Entry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
	UploadDate string `json:"upload_date"` // YYYYMMDD
	Timestamp  *int64 `json:"timestamp"`
	Uploader   string `json:"uploader"`
	Channel    string `json:"channel"`
	Ext        string `json:"ext"`
}

// Playlist is the flat listing of a channel or playlist
type Playlist struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Entries  []Entry `json:"entries"`
}

// UploaderName returns the best available uploader label, checking the
// first entry when the playlist itself carries none
func (p *Playlist) UploaderName() string {
	switch {
	case p.Uploader != "":
		return p.Uploader
	case p.Channel != "":
		return p.Channel
	}
	if len(p.Entries) > 0 {
		if p.Entries[0].Uploader != "" {
			return p.Entries[0].Uploader
		}
		return p.Entries[0].Channel
	}
	return ""
}

// UploadDay parses upload_date. ok is false when the field is missing or malformed.
func (e *Entry) UploadDay(loc *time.Location) (time.Time, bool) {
	if e.UploadDate == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("20060102", e.UploadDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CommandError describes a failed yt-dlp invocation
type CommandError struct {
	Operation string
	URL       string
	Err       error
	Stderr    string
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("yt-dlp %s failed for %s: %v (stderr: %s)", e.Operation, e.URL, e.Err, e.Stderr)
	}
	return fmt.Sprintf("yt-dlp %s failed for %s: %v", e.Operation, e.URL, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(operation, url string, err error, stderr string) *CommandError {
	if len(stderr) > 2048 {
		stderr = stderr[len(stderr)-2048:]
	}
	return &CommandError{Operation: operation, URL: url, Err: err, Stderr: stderr}
}
