// Package tokenizer extracts code candidates from EV5 data files.
//
// Each line is split on '|'. In the default layout the first segment names
// the line's block and segment i sits at column i. In section layout a
// "--- NAME ---" header line selects the block for the lines below it, and
// data segment i sits at column i+1, so one schema serves both layouts.
//
// Blank lines are ignored in both layouts. Lines starting with '#' are
// comments: they are counted in Stats.Comments and never reach the
// discriminator check, so they are not unrecognized lines.
//
// A line longer than 4 MiB is not tokenized. It is counted in
// Stats.OversizedLines and Stats.UnrecognizedLines and the pass continues.
package tokenizer

import (
	"bufio"
	"io"
	"iter"
	"os"
	"regexp"
	"strings"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/pool"
	"github.com/uvacab/ev5validator/schema"
)

// Delimiter separates fields of a record.
const Delimiter = "|"

// maxLineSize bounds a single record line.
const maxLineSize = 4 * 1024 * 1024

var sectionHeader = regexp.MustCompile(`^-{2,}\s*([A-Za-z ]+?)\s*-{2,}$`)

// Stats collects per-pass diagnostics. It is filled while the sequence
// returned by Tokens is consumed.
type Stats struct {
	Lines             int
	Records           int
	Comments          int
	OversizedLines    int
	UnrecognizedLines int
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithSections switches to the header-delimited section layout.
func WithSections(enable bool) Option {
	return func(t *Tokenizer) {
		t.sections = enable
	}
}

// Tokenizer turns lines into schema-resolved tokens. It holds no per-file
// state and is safe for concurrent use.
type Tokenizer struct {
	index    *schema.Index
	sections bool
}

// New creates a Tokenizer over index.
func New(index *schema.Index, opts ...Option) *Tokenizer {
	t := &Tokenizer{index: index}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokens returns a lazy, finite sequence of tokens for the file at path,
// in line then column order. Lines over 4 MiB are skipped and counted, not
// treated as read failures. The file is opened when iteration starts and
// closed when it ends, including early termination; every call starts a
// fresh pass. An open or read failure is yielded once as *ev.FileAccessError
// and ends the sequence. stats may be nil.
func (t *Tokenizer) Tokens(path string, stats *Stats) iter.Seq2[ev.Token, error] {
	return func(yield func(ev.Token, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(ev.Token{}, &ev.FileAccessError{Path: path, Err: err})
			return
		}
		defer f.Close()

		for tok, err := range t.Read(f, stats) {
			if err != nil {
				err = &ev.FileAccessError{Path: path, Err: err}
			}
			if !yield(tok, err) || err != nil {
				return
			}
		}
	}
}

// Read tokenizes records from r. Read errors are yielded once and end the
// sequence. stats may be nil.
func (t *Tokenizer) Read(r io.Reader, stats *Stats) iter.Seq2[ev.Token, error] {
	if stats == nil {
		stats = &Stats{}
	}
	return func(yield func(ev.Token, error) bool) {
		*stats = Stats{}

		buf := pool.AcquireBuffer()
		defer pool.ReleaseBuffer(buf)
		fields := pool.AcquireFields()
		defer pool.ReleaseFields(fields)

		br := bufio.NewReader(r)

		block := ""
		lineNo := 0
		for {
			raw, oversized, err := readLine(br, (*buf)[:0])
			if cap(raw) > cap(*buf) {
				*buf = raw[:0]
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(ev.Token{}, err)
				return
			}

			lineNo++
			stats.Lines++
			if oversized {
				stats.OversizedLines++
				stats.UnrecognizedLines++
				continue
			}

			line := string(raw)
			if lineNo == 1 {
				line = strings.TrimPrefix(line, "\ufeff")
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "#") {
				stats.Comments++
				continue
			}

			var parts []string
			offset := 0
			if t.sections {
				if m := sectionHeader.FindStringSubmatch(line); m != nil {
					block = strings.ToUpper(strings.TrimSpace(m[1]))
					continue
				}
				if !t.index.HasBlock(block) {
					stats.UnrecognizedLines++
					continue
				}
				*fields = pool.Split(*fields, line, Delimiter)
				parts = *fields
				offset = 1
			} else {
				*fields = pool.Split(*fields, line, Delimiter)
				parts = *fields
				block = strings.TrimSpace(parts[0])
				if !t.index.HasBlock(block) {
					stats.UnrecognizedLines++
					continue
				}
			}
			stats.Records++

			for i, part := range parts {
				col := i + offset
				entry, ok := t.index.Resolve(block, col)
				if !ok || !entry.Validates {
					continue
				}
				value := strings.TrimSpace(part)
				if value == "" {
					continue
				}
				tok := ev.Token{
					Value:  value,
					Block:  block,
					Field:  entry.Field,
					Line:   lineNo,
					Column: col,
				}
				if !yield(tok, nil) {
					return
				}
			}
		}
	}
}

// readLine reads one line into dst without its line terminator. A line
// longer than maxLineSize is drained and reported as oversized with no
// content. io.EOF is returned only when no bytes remain.
func readLine(br *bufio.Reader, dst []byte) ([]byte, bool, error) {
	oversized := false
	started := false
	for {
		frag, more, err := br.ReadLine()
		if err != nil {
			if started && err == io.EOF {
				return dst, oversized, nil
			}
			return dst, oversized, err
		}
		started = true
		if !oversized {
			if len(dst)+len(frag) > maxLineSize {
				oversized = true
				dst = dst[:0]
			} else {
				dst = append(dst, frag...)
			}
		}
		if !more {
			return dst, oversized, nil
		}
	}
}
