package pagination

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Missing(t *testing.T) {
	p, err := FromContext(newContext("/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 0 || p.PageSize != 0 {
		t.Errorf("expected zero params, got %+v", p)
	}
	if p.Valid() {
		t.Error("expected missing params to be invalid")
	}
}

func TestFromContext_Values(t *testing.T) {
	p, err := FromContext(newContext("/?page=3&pageSize=25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 3 || p.PageSize != 25 {
		t.Errorf("expected page 3 size 25, got %+v", p)
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
	if p.Limit() != 25 {
		t.Errorf("expected limit 25, got %d", p.Limit())
	}
}

func TestFromContext_NonNumeric(t *testing.T) {
	if _, err := FromContext(newContext("/?page=abc&pageSize=10")); err == nil {
		t.Error("expected error for non-numeric page")
	}
	if _, err := FromContext(newContext("/?page=1&pageSize=ten")); err == nil {
		t.Error("expected error for non-numeric pageSize")
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		p    Params
		want bool
	}{
		{Params{Page: 1, PageSize: 1}, true},
		{Params{Page: 0, PageSize: 10}, false},
		{Params{Page: 1, PageSize: 0}, false},
		{Params{Page: -2, PageSize: 10}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("Valid(%+v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestOffset_Invalid(t *testing.T) {
	if off := (Params{Page: 0, PageSize: 10}).Offset(); off != 0 {
		t.Errorf("expected 0 offset for invalid params, got %d", off)
	}
}

func TestOffset_Saturates(t *testing.T) {
	cases := []struct {
		p    Params
		want int
	}{
		{Params{Page: math.MaxInt/2 + 2, PageSize: 2}, math.MaxInt},
		{Params{Page: 2, PageSize: math.MaxInt}, math.MaxInt},
		{Params{Page: math.MaxInt, PageSize: math.MaxInt}, math.MaxInt},
		{Params{Page: 1, PageSize: math.MaxInt}, 0},
		{Params{Page: math.MaxInt/2 + 1, PageSize: 2}, math.MaxInt - 1},
	}
	for _, tc := range cases {
		if got := tc.p.Offset(); got != tc.want {
			t.Errorf("%+v: expected offset %d, got %d", tc.p, tc.want, got)
		}
	}
}
