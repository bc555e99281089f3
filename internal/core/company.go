package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Company is the fully-hydrated record stored under a single partition (the company name).
type Company struct {
	ID                 string               `json:"id"`
	CompanyName        string               `json:"CompanyName"`
	CompanyDescription string               `json:"CompanyDescription,omitempty"`
	Revenue            *int64               `json:"Revenue,omitempty"`
	MarketCap          *int64               `json:"MarketCap,omitempty"`
	BoardMembers       []Person             `json:"BoardMembers,omitempty"`
	TopExecutives      []Person             `json:"TopExecutives,omitempty"`
	CorporateTimelines []TimelineEvent      `json:"CorporateTimelines,omitempty"`
	FinancialData      []FinancialDatum     `json:"FinancialData,omitempty"`
	NewsData           []NewsItem           `json:"NewsData,omitempty"`
	SummaryData        []SummaryDatum       `json:"SummaryData,omitempty"`
	EngagementActivity []EngagementActivity `json:"EngagementActivity,omitempty"`
}

func (c *Company) Ref() CompanyRef {
	return CompanyRef{ID: c.ID, Name: c.CompanyName}
}

type Person struct {
	Name   string `json:"Name"`
	Role   string `json:"Role,omitempty"`
	Age    *int   `json:"Age,omitempty"`
	Tenure *int   `json:"Tenure,omitempty"`
}

type TimelineEvent struct {
	Date     string `json:"Date"`
	Type     string `json:"Type,omitempty"`
	Headline string `json:"Headline"`
}

type FinancialDatum struct {
	FiscalPeriodEnding     string   `json:"FiscalPeriodEnding"`
	Currency               string   `json:"Currency,omitempty"`
	TotalRevenue           *float64 `json:"TotalRevenue,omitempty"`
	NetIncome              *float64 `json:"NetIncome,omitempty"`
	NetIncomeMarginPercent *float64 `json:"NetIncomeMarginPercent,omitempty"`
}

type NewsItem struct {
	Headline string `json:"Headline"`
	Source   string `json:"Source,omitempty"`
}

type SummaryDatum struct {
	AsOfDate   string   `json:"AsOfDate,omitempty"`
	FiscalYear string   `json:"FiscalYear,omitempty"`
	Revenue    *float64 `json:"revenue,omitempty"`
}

// Attribute is one open-ended engagement value. Value holds the raw JSON so that
// numbers, booleans and nested objects are written back exactly as they were read.
type Attribute struct {
	Key   string
	Value json.RawMessage
}

// EngagementActivity has a fixed category plus an ordered bag of attributes whose
// schema differs per category.
type EngagementActivity struct {
	Category   string
	Attributes []Attribute

	// CategoryKey is the spelling the category key was read with when it is not
	// "category". It is written back unchanged.
	CategoryKey string
}

const categoryKey = "category"

// Get returns the raw value of an attribute.
func (a *EngagementActivity) Get(key string) (json.RawMessage, bool) {
	for _, attr := range a.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Text renders an attribute as plain text: strings are unquoted, everything else is
// returned as its JSON literal.
func (a *EngagementActivity) Text(key string) string {
	raw, ok := a.Get(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Set replaces an existing attribute in place or appends a new one.
func (a *EngagementActivity) Set(key string, value json.RawMessage) {
	for i := range a.Attributes {
		if a.Attributes[i].Key == key {
			a.Attributes[i].Value = value
			return
		}
	}
	a.Attributes = append(a.Attributes, Attribute{Key: key, Value: value})
}

func (a EngagementActivity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	category, err := json.Marshal(a.Category)
	if err != nil {
		return nil, err
	}
	name := categoryKey
	if a.CategoryKey != "" {
		name = a.CategoryKey
	}
	key, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(category)

	for _, attr := range a.Attributes {
		key, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		value := attr.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *EngagementActivity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("engagement activity: expected object, got %v", tok)
	}

	out := EngagementActivity{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("engagement activity: expected property name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("engagement activity %q: %w", key, err)
		}

		if strings.EqualFold(key, categoryKey) {
			if key != categoryKey {
				out.CategoryKey = key
			}
			if string(raw) != "null" {
				if err := json.Unmarshal(raw, &out.Category); err != nil {
					return fmt.Errorf("engagement activity category: %w", err)
				}
			}
			continue
		}
		out.Set(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}
