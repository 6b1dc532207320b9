package validation

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func(Violations)
		want  string // expected code for field "f", "" for none
	}{
		{"required empty", func(v Violations) { Required("f", "  ", v) }, "required"},
		{"required ok", func(v Violations) { Required("f", "x", v) }, ""},
		{"email empty allowed", func(v Violations) { Email("f", "", v) }, ""},
		{"email invalid", func(v Violations) { Email("f", "nope", v) }, "invalid_email"},
		{"email ok", func(v Violations) { Email("f", "info@dreams-trading.com", v) }, ""},
		{"one of ok", func(v Violations) { OneOf("f", "paid", []string{"pending", "paid"}, v) }, ""},
		{"one of bad", func(v Violations) { OneOf("f", "void", []string{"pending", "paid"}, v) }, "invalid_choice"},
		{"decimal formatted", func(v Violations) { Decimal("f", "1,250.50", v) }, ""},
		{"decimal bad", func(v Violations) { Decimal("f", "12a", v) }, "invalid_number"},
		{"non negative", func(v Violations) { NonNegativeDecimal("f", "-1", v) }, "must_not_be_negative"},
		{"range out", func(v Violations) { RangeDecimal("f", "120", 0, 100, v) }, "out_of_range"},
		{"range ok", func(v Violations) { RangeDecimal("f", "10", 0, 100, v) }, ""},
		{"scale ok", func(v Violations) { Scale("f", "10.25", 2, v) }, ""},
		{"scale trailing zeros", func(v Violations) { Scale("f", "10.500", 2, v) }, ""},
		{"scale too fine", func(v Violations) { Scale("f", "0.005", 2, v) }, "too_many_decimals"},
		{"max abs above", func(v Violations) { MaxAbs("f", "-101", decimal.NewFromInt(100), v) }, "out_of_range"},
		{"amount at limit", func(v Violations) { Amount("f", "99,999,999.99", v) }, ""},
		{"amount above limit", func(v Violations) { Amount("f", "100000000", v) }, "out_of_range"},
		{"amount decimals first", func(v Violations) { Amount("f", "100000000.001", v) }, "too_many_decimals"},
		{"amount bad", func(v Violations) { Amount("f", "x", v) }, "invalid_number"},
		{"amount empty", func(v Violations) { Amount("f", "", v) }, ""},
		{"date ok", func(v Violations) { Date("f", "2024-01-15", v) }, ""},
		{"date rfc3339", func(v Violations) { Date("f", "2024-01-15T10:00:00Z", v) }, ""},
		{"date bad", func(v Violations) { Date("f", "15/01/2024", v) }, "invalid_date"},
		{"max len", func(v Violations) { MaxLen("f", "عميل", 3, v) }, "too_long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Violations{}
			tt.check(v)
			if got := v["f"]; got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestFirstViolationWins(t *testing.T) {
	v := Violations{}
	Required("name", "", v)
	MaxLen("name", "", 0, v)
	v.Add("name", "other")
	if v["name"] != "required" {
		t.Fatalf("expected first violation to stick, got %q", v["name"])
	}
	if v.Empty() {
		t.Fatalf("expected violations")
	}
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"1,250.50","b":99.5,"c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "1,250.50" || v.B != "99.5" || v.C != "" {
		t.Fatalf("unexpected values %+v", v)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &v); err == nil {
		t.Fatalf("expected error for boolean")
	}
}
