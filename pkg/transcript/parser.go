package transcript

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TranscriptFormat represents the format of a transcript
type TranscriptFormat string

const (
	FormatVTT       TranscriptFormat = "vtt"
	FormatSRT       TranscriptFormat = "srt"
	FormatTimedText TranscriptFormat = "timedtext" // YouTube caption XML
	FormatBilibili  TranscriptFormat = "bilibili"  // Bilibili subtitle JSON
	FormatText      TranscriptFormat = "text"
)

var (
	vttTimestampRegex = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}\.\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}\.\d{3})`)
	srtTimestampRegex = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})`)
	sequenceRegex     = regexp.MustCompile(`^\d+$`)
	markupRegex       = regexp.MustCompile(`<[^>]*>`)
)

// Segment represents a transcript segment with timing information
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript represents a parsed transcript
type Transcript struct {
	Format   TranscriptFormat
	Segments []Segment
	FullText string
	Duration time.Duration
}

// Parser handles parsing different transcript formats
type Parser struct{}

// NewParser creates a new transcript parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses transcript content based on its format
func (p *Parser) Parse(content string, format TranscriptFormat) (*Transcript, error) {
	switch format {
	case FormatVTT:
		return p.parseVTT(content)
	case FormatSRT:
		return p.parseSRT(content)
	case FormatTimedText:
		return p.parseTimedText(content)
	case FormatBilibili:
		return p.parseBilibili(content)
	case FormatText:
		return p.parseText(content)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// parseVTT parses WebVTT format transcripts
func (p *Parser) parseVTT(content string) (*Transcript, error) {
	builder := newSegmentBuilder(FormatVTT)
	var current *Segment
	var text strings.Builder

	flush := func() {
		if current != nil && text.Len() > 0 {
			current.Text = text.String()
			builder.add(*current)
		}
		text.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") || line == "" {
			continue
		}

		if matches := vttTimestampRegex.FindStringSubmatch(line); matches != nil {
			flush()
			start, _ := parseVTTTimestamp(matches[1])
			end, _ := parseVTTTimestamp(matches[2])
			current = &Segment{Start: start, End: end}
			continue
		}

		if current != nil && !strings.Contains(line, "-->") {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(cleanMarkup(line))
		}
	}
	flush()

	return builder.build(), nil
}

// parseSRT parses SRT format transcripts
func (p *Parser) parseSRT(content string) (*Transcript, error) {
	builder := newSegmentBuilder(FormatSRT)
	var current *Segment
	var text strings.Builder

	flush := func() {
		if current != nil && text.Len() > 0 {
			current.Text = text.String()
			builder.add(*current)
		}
		current = nil
		text.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if current == nil && sequenceRegex.MatchString(line) {
			continue
		}

		if matches := srtTimestampRegex.FindStringSubmatch(line); matches != nil {
			start, _ := parseSRTTimestamp(matches[1])
			end, _ := parseSRTTimestamp(matches[2])
			current = &Segment{Start: start, End: end}
			continue
		}

		if current != nil {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(line)
		}
	}
	flush()

	return builder.build(), nil
}

// timedText covers both caption XML shapes YouTube serves:
// <transcript><text start="1.2" dur="3.4">..</text></transcript> and the
// format 3 <timedtext><body><p t="1200" d="3400">..</p></body></timedtext>.
type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Text     string  `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			T     int64  `xml:"t,attr"`
			D     int64  `xml:"d,attr"`
			Inner string `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseTimedText parses YouTube timedtext caption XML
func (p *Parser) parseTimedText(content string) (*Transcript, error) {
	var doc timedText
	dec := xml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.Entity = xml.HTMLEntity
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext XML: %w", err)
	}

	builder := newSegmentBuilder(FormatTimedText)
	for _, t := range doc.Texts {
		builder.add(Segment{
			Start: seconds(t.Start),
			End:   seconds(t.Start + t.Duration),
			Text:  cleanMarkup(t.Text),
		})
	}
	for _, para := range doc.Body.Paragraphs {
		builder.add(Segment{
			Start: time.Duration(para.T) * time.Millisecond,
			End:   time.Duration(para.T+para.D) * time.Millisecond,
			Text:  cleanMarkup(para.Inner),
		})
	}

	return builder.build(), nil
}

// bilibiliSubtitle is the JSON document behind a Bilibili subtitle_url
type bilibiliSubtitle struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

// parseBilibili parses Bilibili subtitle JSON
func (p *Parser) parseBilibili(content string) (*Transcript, error) {
	var doc bilibiliSubtitle
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bilibili subtitle: %w", err)
	}

	builder := newSegmentBuilder(FormatBilibili)
	for _, line := range doc.Body {
		builder.add(Segment{
			Start: seconds(line.From),
			End:   seconds(line.To),
			Text:  line.Content,
		})
	}

	return builder.build(), nil
}

// parseText parses plain text transcripts (no timing information)
func (p *Parser) parseText(content string) (*Transcript, error) {
	return &Transcript{
		Format:   FormatText,
		Segments: []Segment{},
		FullText: strings.TrimSpace(content),
	}, nil
}

// segmentBuilder accumulates non-empty segments and the joined full text
type segmentBuilder struct {
	transcript *Transcript
	full       strings.Builder
}

func newSegmentBuilder(format TranscriptFormat) *segmentBuilder {
	return &segmentBuilder{transcript: &Transcript{Format: format, Segments: []Segment{}}}
}

func (b *segmentBuilder) add(seg Segment) {
	seg.Text = strings.TrimSpace(seg.Text)
	if seg.Text == "" {
		return
	}
	b.transcript.Segments = append(b.transcript.Segments, seg)
	if b.full.Len() > 0 {
		b.full.WriteString(" ")
	}
	b.full.WriteString(seg.Text)
}

func (b *segmentBuilder) build() *Transcript {
	b.transcript.FullText = b.full.String()
	if n := len(b.transcript.Segments); n > 0 {
		b.transcript.Duration = b.transcript.Segments[n-1].End
	}
	return b.transcript
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// parseVTTTimestamp parses a VTT timestamp (HH:MM:SS.mmm)
func parseVTTTimestamp(timestamp string) (time.Duration, error) {
	parts := strings.Split(timestamp, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid VTT timestamp: %s", timestamp)
	}

	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])

	secParts := strings.Split(parts[2], ".")
	secs, _ := strconv.Atoi(secParts[0])
	milliseconds := 0
	if len(secParts) > 1 {
		milliseconds, _ = strconv.Atoi(secParts[1])
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(milliseconds)*time.Millisecond, nil
}

// parseSRTTimestamp parses an SRT timestamp (HH:MM:SS,mmm)
func parseSRTTimestamp(timestamp string) (time.Duration, error) {
	return parseVTTTimestamp(strings.Replace(timestamp, ",", ".", 1))
}

// cleanMarkup strips inline tags (<v Speaker>, <i>, <s>) and decodes entities
func cleanMarkup(text string) string {
	text = markupRegex.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// ToPlainText converts a transcript to plain text format
func (t *Transcript) ToPlainText() string {
	if t.FullText != "" {
		return t.FullText
	}

	var builder strings.Builder
	for _, segment := range t.Segments {
		builder.WriteString(segment.Text)
		builder.WriteString(" ")
	}

	return strings.TrimSpace(builder.String())
}
