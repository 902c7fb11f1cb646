package pool

import (
	"strings"
	"sync"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []string{
		"A|X|OK|Y",
		"A",
		"",
		"|",
		"A||C|",
		"|lead",
	}
	buf := make([]string, 0, 2)
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got := Split(buf, in, "|")
			want := strings.Split(in, "|")
			if strings.Join(got, ",") != strings.Join(want, ",") || len(got) != len(want) {
				t.Errorf("Split(%q) = %q; want %q", in, got, want)
			}
		})
	}
}

func TestFields_Reuse(t *testing.T) {
	s := AcquireFields()
	*s = Split(*s, "a|b|c", "|")
	if len(*s) != 3 {
		t.Fatalf("len = %d; want 3", len(*s))
	}
	ReleaseFields(s)

	s = AcquireFields()
	if len(*s) != 0 {
		t.Errorf("acquired slice len = %d; want 0", len(*s))
	}
	ReleaseFields(s)
	ReleaseFields(nil)
}

func TestBuffer_Reuse(t *testing.T) {
	b := AcquireBuffer()
	if len(*b) != 0 || cap(*b) == 0 {
		t.Errorf("buffer len = %d, cap = %d; want 0, > 0", len(*b), cap(*b))
	}
	*b = append(*b, "data"...)
	ReleaseBuffer(b)
	ReleaseBuffer(nil)

	b = AcquireBuffer()
	if len(*b) != 0 {
		t.Errorf("acquired buffer len = %d; want 0", len(*b))
	}
	ReleaseBuffer(b)
}

func TestPool_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := AcquireFields()
			*s = Split(*s, "x|y|z", "|")
			if len(*s) != 3 {
				t.Errorf("len = %d; want 3", len(*s))
			}
			ReleaseFields(s)
		}()
	}
	wg.Wait()
}

func BenchmarkSplit(b *testing.B) {
	line := "VEHICLE|1HGCM82633A004352|02|HONDA|ACCORD|2003|BLUE"
	buf := make([]string, 0, 16)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = Split(buf, line, "|")
	}
}

func BenchmarkStringsSplit(b *testing.B) {
	line := "VEHICLE|1HGCM82633A004352|02|HONDA|ACCORD|2003|BLUE"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = strings.Split(line, "|")
	}
}
