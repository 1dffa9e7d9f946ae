package school

import "testing"

func TestNormalizePageClampsInput(t *testing.T) {
	cases := []struct {
		name         string
		number, size int
		wantNumber   int
		wantSize     int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"negative page", -3, 10, 1, 10},
		{"oversized", 1, 100000, 1, MaxPageSize},
		{"in range", 4, 50, 4, 50},
		{"negative size", 2, -1, 2, DefaultPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NormalizePage(tc.number, tc.size)
			if p.Number != tc.wantNumber || p.Size != tc.wantSize {
				t.Fatalf("NormalizePage(%d, %d) = %+v, want number %d size %d",
					tc.number, tc.size, p, tc.wantNumber, tc.wantSize)
			}
		})
	}
}

func TestPageOffset(t *testing.T) {
	if got := NormalizePage(1, 20).Offset(); got != 0 {
		t.Fatalf("first page offset = %d, want 0", got)
	}
	if got := NormalizePage(3, 25).Offset(); got != 50 {
		t.Fatalf("offset = %d, want 50", got)
	}
}

func TestPagePages(t *testing.T) {
	p := NormalizePage(1, 100)
	if got := p.Pages(120); got != 2 {
		t.Fatalf("Pages(120) = %d, want 2", got)
	}
	if got := p.Pages(0); got != 0 {
		t.Fatalf("Pages(0) = %d, want 0", got)
	}
	if got := p.Pages(100); got != 1 {
		t.Fatalf("Pages(100) = %d, want 1", got)
	}
}
