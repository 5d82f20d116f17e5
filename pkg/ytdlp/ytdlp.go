// Package ytdlp wraps the yt-dlp command line tool for audio downloads and
// channel listings.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Options configures the yt-dlp wrapper
type Options struct {
	Path        string // Default: yt-dlp
	CookiesFile string // Passed with --cookies when the file exists
	UserAgent   string
}

// Client runs yt-dlp subprocesses
type Client struct {
	options Options
}

// New creates a new yt-dlp client
func New(options Options) *Client {
	if options.Path == "" {
		options.Path = "yt-dlp"
	}
	return &Client{options: options}
}

// ValidateBinary checks that yt-dlp is on the PATH
func (c *Client) ValidateBinary() error {
	if _, err := exec.LookPath(c.options.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, c.options.Path)
	}
	return nil
}

// DownloadAudio downloads the best audio stream of url into dir as
// <name>.<ext> and returns the resulting path.
func (c *Client) DownloadAudio(ctx context.Context, url, dir, name, referer string) (string, error) {
	args := []string{
		"-f", "bestaudio/best",
		"-o", filepath.Join(dir, name+".%(ext)s"),
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--no-warnings",
		"--print", "after_move:filepath",
	}
	if referer != "" {
		args = append(args, "--referer", referer)
	}
	args = append(args, c.commonArgs()...)
	args = append(args, url)

	stdout, err := c.run(ctx, "download", url, args)
	if err != nil {
		return "", err
	}

	if path := lastLine(stdout); path != "" {
		if info, statErr := os.Stat(path); statErr == nil && info.Size() > 0 {
			return path, nil
		}
	}

	// Older yt-dlp builds ignore --print with --quiet; look for the file instead
	matches, _ := filepath.Glob(filepath.Join(dir, name+".*"))
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") || strings.HasSuffix(match, ".ytdl") {
			continue
		}
		if info, statErr := os.Stat(match); statErr == nil && info.Size() > 0 {
			return match, nil
		}
	}

	return "", newCommandError("download", url, ErrNoOutputFile, "")
}

// FlatPlaylist lists up to limit entries of a channel or playlist without
// resolving each video
func (c *Client) FlatPlaylist(ctx context.Context, url string, limit int) (*Playlist, error) {
	args := []string{"--flat-playlist", "-J", "--quiet", "--no-warnings"}
	if limit > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(limit))
	}
	args = append(args, c.commonArgs()...)
	args = append(args, url)

	stdout, err := c.run(ctx, "flat_playlist", url, args)
	if err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := json.Unmarshal(stdout, &playlist); err != nil {
		return nil, newCommandError("flat_playlist", url, fmt.Errorf("decode output: %w", err), "")
	}
	return &playlist, nil
}

// Metadata resolves the full metadata of a single video
func (c *Client) Metadata(ctx context.Context, url string) (*Entry, error) {
	args := []string{"-J", "--skip-download", "--no-playlist", "--quiet", "--no-warnings"}
	args = append(args, c.commonArgs()...)
	args = append(args, url)

	stdout, err := c.run(ctx, "metadata", url, args)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(stdout, &entry); err != nil {
		return nil, newCommandError("metadata", url, fmt.Errorf("decode output: %w", err), "")
	}
	return &entry, nil
}

func (c *Client) commonArgs() []string {
	var args []string
	if c.options.UserAgent != "" {
		args = append(args, "--user-agent", c.options.UserAgent)
	}
	if c.options.CookiesFile != "" {
		if _, err := os.Stat(c.options.CookiesFile); err == nil {
			args = append(args, "--cookies", c.options.CookiesFile)
		}
	}
	return args
}

func (c *Client) run(ctx context.Context, operation, url string, args []string) ([]byte, error) {
	zerolog.Ctx(ctx).Debug().
		Str("operation", operation).
		Str("url", url).
		Msg("running yt-dlp")

	cmd := exec.CommandContext(ctx, c.options.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, newCommandError(operation, url, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
