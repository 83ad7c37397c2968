package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 200

// RawAmount is a price as entered by the user. It decodes from either a JSON
// string or a JSON number and stays unparsed until Parse/Apply.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	}
	if string(data) == "null" {
		*a = ""
		return nil
	}
	*a = RawAmount(data)
	return nil
}

// CreateInput carries the raw fields of a new subscription.
type CreateInput struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Price       RawAmount `json:"price" validate:"required"`
	Cycle       string    `json:"cycle"`
	RenewDate   string    `json:"renewDate" validate:"required"`
	Status      string    `json:"status"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description"`
	Reminder    bool      `json:"reminder"`
	Recurring   bool      `json:"recurring"`
}

// Parse validates the input and builds the typed record. The returned record
// has no ID; the store assigns one. Failures are always *ValidationError.
func (in CreateInput) Parse() (Subscription, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = RawAmount(strings.TrimSpace(string(in.Price)))
	in.Cycle = strings.TrimSpace(in.Cycle)
	in.RenewDate = strings.TrimSpace(in.RenewDate)
	in.Status = strings.TrimSpace(in.Status)
	in.Category = strings.TrimSpace(in.Category)

	if err := ValidateStruct(in); err != nil {
		return Subscription{}, err
	}

	price, err := parsePriceField(string(in.Price))
	if err != nil {
		return Subscription{}, err
	}
	date, err := parseDateField(in.RenewDate)
	if err != nil {
		return Subscription{}, err
	}

	cycle := Monthly
	if in.Cycle != "" {
		if cycle, err = parseCycleField(in.Cycle); err != nil {
			return Subscription{}, err
		}
	}
	status := StatusActive
	if in.Status != "" {
		if status, err = parseStatusField(in.Status); err != nil {
			return Subscription{}, err
		}
	}

	return Subscription{
		Name:        in.Name,
		Price:       price,
		Cycle:       cycle,
		RenewDate:   date,
		Status:      status,
		Category:    in.Category,
		Description: in.Description,
		Reminder:    in.Reminder,
		Recurring:   in.Recurring,
	}, nil
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Name        *string    `json:"name,omitempty"`
	Price       *RawAmount `json:"price,omitempty"`
	Cycle       *string    `json:"cycle,omitempty"`
	RenewDate   *string    `json:"renewDate,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Description *string    `json:"description,omitempty"`
	Reminder    *bool      `json:"reminder,omitempty"`
	Recurring   *bool      `json:"recurring,omitempty"`
}

// IsEmpty reports whether no field is set.
func (in UpdateInput) IsEmpty() bool {
	return in == UpdateInput{}
}

// Apply merges the set fields onto s. s is returned unchanged on error.
func (in UpdateInput) Apply(s Subscription) (Subscription, error) {
	out := s
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return s, &ValidationError{Field: "name", Reason: ReasonMissing}
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return s, &ValidationError{Field: "name", Reason: ReasonTooLong}
		}
		out.Name = name
	}
	if in.Price != nil {
		price, err := parsePriceField(string(*in.Price))
		if err != nil {
			return s, err
		}
		out.Price = price
	}
	if in.Cycle != nil {
		cycle, err := parseCycleField(*in.Cycle)
		if err != nil {
			return s, err
		}
		out.Cycle = cycle
	}
	if in.RenewDate != nil {
		date, err := parseDateField(*in.RenewDate)
		if err != nil {
			return s, err
		}
		out.RenewDate = date
	}
	if in.Status != nil {
		status, err := parseStatusField(*in.Status)
		if err != nil {
			return s, err
		}
		out.Status = status
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return s, &ValidationError{Field: "category", Reason: ReasonMissing}
		}
		out.Category = category
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.Reminder != nil {
		out.Reminder = *in.Reminder
	}
	if in.Recurring != nil {
		out.Recurring = *in.Recurring
	}
	return out, nil
}

func parsePriceField(raw string) (Price, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "price", Reason: ReasonMissing}
	}
	p, err := ParsePrice(raw)
	switch {
	case errors.Is(err, ErrNegativePrice):
		return 0, &ValidationError{Field: "price", Reason: ReasonNegative, Value: raw}
	case err != nil:
		return 0, &ValidationError{Field: "price", Reason: ReasonMalformed, Value: raw}
	}
	return p, nil
}

func parseDateField(raw string) (Date, error) {
	if strings.TrimSpace(raw) == "" {
		return Date{}, &ValidationError{Field: "renewDate", Reason: ReasonMissing}
	}
	d, err := ParseDate(raw)
	if err != nil {
		return Date{}, &ValidationError{Field: "renewDate", Reason: ReasonMalformed, Value: raw}
	}
	return d, nil
}

func parseCycleField(raw string) (Cycle, error) {
	c, err := ParseCycle(raw)
	if err != nil {
		return "", &ValidationError{Field: "cycle", Reason: ReasonUnknownValue, Value: raw}
	}
	return c, nil
}

func parseStatusField(raw string) (Status, error) {
	st, err := ParseStatus(raw)
	if err != nil {
		return "", &ValidationError{Field: "status", Reason: ReasonUnknownValue, Value: raw}
	}
	return st, nil
}
