package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want Price
		err  error
	}{
		{"1200", 1200, nil},
		{" 9.99 ", 9.99, nil},
		{"0", 0, nil},
		{"-5", 0, ErrNegativePrice},
		{"abc", 0, ErrInvalidPrice},
		{"", 0, ErrInvalidPrice},
		{"NaN", 0, ErrInvalidPrice},
		{"1,200", 1200, nil},
		{"15,000.50", 15000.5, nil},
		{"1,234,567", 1234567, nil},
		{"-1,200", 0, ErrNegativePrice},
		{"1,20", 0, ErrInvalidPrice},
		{",120", 0, ErrInvalidPrice},
		{"1200,000", 0, ErrInvalidPrice},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		if !errors.Is(err, tc.err) {
			t.Fatalf("ParsePrice(%q) err=%v, want %v", tc.in, err, tc.err)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParsePrice(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPriceJSON(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`1200`), &p); err != nil || p.Float() != 1200 {
		t.Fatalf("number: got %v err=%v", p, err)
	}
	if err := json.Unmarshal([]byte(`"15.5"`), &p); err != nil || p.Float() != 15.5 {
		t.Fatalf("numeric string: got %v err=%v", p, err)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &p); err != nil {
		t.Fatalf("garbage string should not fail decoding: %v", err)
	}
	if p.Valid() || p.Float() != 0 {
		t.Fatalf("expected invalid price counting as zero, got %v", p)
	}
	out, err := json.Marshal(p)
	if err != nil || string(out) != "null" {
		t.Fatalf("invalid price should encode as null, got %s err=%v", out, err)
	}
	out, _ = json.Marshal(Price(1200))
	if string(out) != "1200" {
		t.Fatalf("expected 1200, got %s", out)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-08-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 8 || d.Day() != 1 {
		t.Fatalf("unexpected date %v", d)
	}
	d, err = ParseDate("2025-08-01T15:04:05Z")
	if err != nil || d.String() != "2025-08-01" {
		t.Fatalf("timestamp: got %v err=%v", d, err)
	}
	for _, bad := range []string{"", "08/01/2025", "2025-13-01", "tomorrow"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateJSON(t *testing.T) {
	out, err := json.Marshal(NewDate(2025, 8, 1))
	if err != nil || string(out) != `"2025-08-01"` {
		t.Fatalf("got %s err=%v", out, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"not a date"`), &d); err == nil {
		t.Fatalf("expected error decoding garbage date")
	}
}

func validInput() CreateInput {
	return CreateInput{
		Name:      "Netflix",
		Price:     "1200",
		RenewDate: "2025-08-01",
		Category:  CategoryEntertainment,
	}
}

func TestCreateInputParse(t *testing.T) {
	sub, err := validInput().Parse()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if sub.Cycle != Monthly {
		t.Errorf("default cycle = %q, want Monthly", sub.Cycle)
	}
	if sub.Status != StatusActive {
		t.Errorf("default status = %q, want active", sub.Status)
	}
	if sub.ID != "" {
		t.Errorf("Parse must not assign an id, got %q", sub.ID)
	}
	if sub.Price != 1200 || sub.RenewDate.String() != "2025-08-01" {
		t.Errorf("unexpected record %+v", sub)
	}
}

func TestCreateInputParseFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
		reason Reason
	}{
		{"missing name", func(in *CreateInput) { in.Name = "  " }, "name", ReasonMissing},
		{"missing price", func(in *CreateInput) { in.Price = "" }, "price", ReasonMissing},
		{"negative price", func(in *CreateInput) { in.Price = "-5" }, "price", ReasonNegative},
		{"malformed price", func(in *CreateInput) { in.Price = "twelve" }, "price", ReasonMalformed},
		{"missing date", func(in *CreateInput) { in.RenewDate = "" }, "renewDate", ReasonMissing},
		{"malformed date", func(in *CreateInput) { in.RenewDate = "31/12/2025" }, "renewDate", ReasonMalformed},
		{"missing category", func(in *CreateInput) { in.Category = "" }, "category", ReasonMissing},
		{"unknown cycle", func(in *CreateInput) { in.Cycle = "Daily" }, "cycle", ReasonUnknownValue},
		{"unknown status", func(in *CreateInput) { in.Status = "paused" }, "status", ReasonUnknownValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := in.Parse()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected errors.Is(err, ErrValidation)")
			}
			if verr.Field != tt.field || verr.Reason != tt.reason {
				t.Errorf("got %s/%s, want %s/%s", verr.Field, verr.Reason, tt.field, tt.reason)
			}
		})
	}
}

func TestCreateInputDecodesNumericPrice(t *testing.T) {
	var in CreateInput
	body := `{"name":"Spotify","price":2500.5,"renewDate":"2025-09-10","category":"Entertainment","cycle":"yearly"}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decode: %v", err)
	}
	sub, err := in.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub.Price != 2500.5 || sub.Cycle != Yearly {
		t.Fatalf("unexpected record %+v", sub)
	}
}

func TestUpdateInputApply(t *testing.T) {
	base, err := validInput().Parse()
	if err != nil {
		t.Fatal(err)
	}
	base.ID = "abc"

	got, err := UpdateInput{}.Apply(base)
	if err != nil || got != base {
		t.Fatalf("empty update changed record: %+v err=%v", got, err)
	}

	price := RawAmount("1500")
	status := "missed"
	reminder := true
	got, err = UpdateInput{Price: &price, Status: &status, Reminder: &reminder}.Apply(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price != 1500 || got.Status != StatusMissed || !got.Reminder {
		t.Fatalf("fields not merged: %+v", got)
	}
	if got.ID != base.ID || got.Name != base.Name || got.Category != base.Category {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	empty := ""
	if _, err := (UpdateInput{Name: &empty}).Apply(base); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	bad := RawAmount("-1")
	if _, err := (UpdateInput{Price: &bad}).Apply(base); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{ID: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("not found must not match validation")
	}
}
