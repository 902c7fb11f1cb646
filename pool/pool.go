// Package pool provides sync.Pool wrappers for the per-file buffers of the
// tokenizer, so a batch of files reuses them instead of reallocating.
package pool

import (
	"strings"
	"sync"
)

// fieldsPool holds reusable record field slices.
var fieldsPool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 32)
		return &s
	},
}

// AcquireFields gets an empty field slice from the pool.
func AcquireFields() *[]string {
	s := fieldsPool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// ReleaseFields returns a field slice to the pool.
func ReleaseFields(s *[]string) {
	if s == nil {
		return
	}
	// Don't keep slices grown by unusually wide records
	if cap(*s) <= 1024 {
		clear((*s)[:cap(*s)])
		fieldsPool.Put(s)
	}
}

// Split splits s around sep into dst, reusing its backing array, and
// returns the result. It matches strings.Split for a non-empty sep.
func Split(dst []string, s, sep string) []string {
	dst = dst[:0]
	for {
		i := strings.Index(s, sep)
		if i < 0 {
			return append(dst, s)
		}
		dst = append(dst, s[:i])
		s = s[i+len(sep):]
	}
}

// bufferPool holds scanner buffers.
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

// AcquireBuffer gets an empty byte buffer from the pool.
func AcquireBuffer() *[]byte {
	b := bufferPool.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(b *[]byte) {
	if b == nil {
		return
	}
	// Don't return oversized buffers
	if cap(*b) <= 1024*1024 {
		bufferPool.Put(b)
	}
}
