package money

import (
	"encoding/json"
	"testing"
)

func TestCentsString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cents Cents
		want  string
	}{
		{name: "whole amount", cents: 10000, want: "100.00"},
		{name: "fractional amount", cents: 10223, want: "102.23"},
		{name: "single digit fraction", cents: 1005, want: "10.05"},
		{name: "zero", cents: 0, want: "0.00"},
		{name: "under one unit", cents: 7, want: "0.07"},
		{name: "negative", cents: -1250, want: "-12.50"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.cents.String(); got != tt.want {
				t.Fatalf("Cents(%d).String() = %q, want %q", tt.cents, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    Cents
		wantErr bool
	}{
		{name: "two fractional digits", value: "102.23", want: 10223},
		{name: "one fractional digit", value: "10.5", want: 1050},
		{name: "no fraction", value: "85", want: 8500},
		{name: "leading dot", value: ".99", want: 99},
		{name: "negative", value: "-12.50", want: -1250},
		{name: "too many fractional digits", value: "1.234", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "garbage", value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(Cents(10223))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `"102.23"` {
		t.Fatalf("marshal = %s, want \"102.23\"", payload)
	}

	var back Cents
	if err := json.Unmarshal(payload, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != 10223 {
		t.Fatalf("round trip = %d, want 10223", back)
	}
}
