package params

import (
	"net/url"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: DefaultLimit, Page: 1, Offset: 0}},
		{"limit=10&page=3", Pagination{Limit: 10, Page: 3, Offset: 20}},
		{"limit=1000", Pagination{Limit: MaxLimit, Page: 1, Offset: 0}},
		{"limit=-4&page=0", Pagination{Limit: DefaultLimit, Page: 1, Offset: 0}},
		{"limit=abc&page=x", Pagination{Limit: DefaultLimit, Page: 1, Offset: 0}},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		if got := ParsePagination(q); got != tt.want {
			t.Fatalf("ParsePagination(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2, Offset: 10}
	p.ComputeMeta(25)

	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev || p.Total != 25 {
		t.Fatalf("unexpected meta %+v", p)
	}

	last := Pagination{Limit: 10, Page: 3, Offset: 20}
	last.ComputeMeta(25)
	if last.HasNext {
		t.Fatalf("last page should not have next")
	}
}

func TestFloat(t *testing.T) {
	q, _ := url.ParseQuery("lng=106.8&lat=bad&inf=Inf")

	if v, err := Float(q, "lng"); err != nil || v != 106.8 {
		t.Fatalf("lng = %v, %v", v, err)
	}
	if _, err := Float(q, "lat"); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := Float(q, "inf"); err == nil {
		t.Fatalf("expected error for infinity")
	}
	if _, err := Float(q, "missing"); err == nil {
		t.Fatalf("expected error for missing value")
	}
	if v, err := FloatOr(q, "missing", 10000); err != nil || v != 10000 {
		t.Fatalf("fallback = %v, %v", v, err)
	}
}

func TestID(t *testing.T) {
	if id, err := ID("42"); err != nil || id != 42 {
		t.Fatalf("ID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-1", "abc"} {
		if _, err := ID(raw); err == nil {
			t.Fatalf("ID(%q) should fail", raw)
		}
	}
}
