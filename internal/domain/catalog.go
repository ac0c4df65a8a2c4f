package domain

import (
	"strings"
	"time"
)

// Brand is a catalog brand row.
type Brand struct {
	ID   int64
	Name string
}

// Price is one price row of a product. Amount is in base currency units (VND).
type Price struct {
	ID        int64
	Amount    int64
	Active    bool
	StartDate time.Time
}

// Specification holds the curated technical fields of a product.
// An empty string means the field is not filled in.
type Specification struct {
	Screen      string
	RearCamera  string
	FrontCamera string
	Chipset     string
	RAM         string
	Storage     string
	Battery     string
	OS          string
	Weight      string
}

// SpecField is a labelled specification value.
type SpecField struct {
	Label string
	Value string
}

// Fields returns the specification fields in display order, including empty ones.
func (s *Specification) Fields() []SpecField {
	if s == nil {
		return nil
	}
	return []SpecField{
		{Label: "Screen", Value: s.Screen},
		{Label: "Rear camera", Value: s.RearCamera},
		{Label: "Front camera", Value: s.FrontCamera},
		{Label: "Chipset", Value: s.Chipset},
		{Label: "RAM", Value: s.RAM},
		{Label: "Storage", Value: s.Storage},
		{Label: "Battery", Value: s.Battery},
		{Label: "OS", Value: s.OS},
		{Label: "Weight", Value: s.Weight},
	}
}

// Product is a read-only catalog product with its brand, prices and specification.
type Product struct {
	ID          int64
	Name        string
	Brand       *Brand
	Status      string
	Rating      float64
	Description string
	Prices      []Price
	Spec        *Specification
}

// BrandName returns the brand display name or "" when the product has no brand.
func (p *Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}

// ActivePrices returns prices flagged active whose start date is not after now.
func (p *Product) ActivePrices(now time.Time) []Price {
	var out []Price
	for _, pr := range p.Prices {
		if !pr.Active {
			continue
		}
		if !pr.StartDate.IsZero() && pr.StartDate.After(now) {
			continue
		}
		out = append(out, pr)
	}
	return out
}

// MergedDescription returns the free-text description followed by a compact
// line of the filled-in specification fields.
func (p *Product) MergedDescription() string {
	desc := strings.TrimSpace(p.Description)

	var specs []string
	for _, f := range p.Spec.Fields() {
		if v := strings.TrimSpace(f.Value); v != "" {
			specs = append(specs, f.Label+": "+v)
		}
	}
	if len(specs) == 0 {
		return desc
	}

	line := "Key specs: " + strings.Join(specs, "; ")
	if desc == "" {
		return line
	}
	return desc + "\n" + line
}
