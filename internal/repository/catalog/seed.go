package catalog

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is a YAML catalog used to seed development and demo databases.
type Fixture struct {
	Brands   []FixtureBrand   `yaml:"brands"`
	Products []FixtureProduct `yaml:"products"`
}

// FixtureBrand is one brand row.
type FixtureBrand struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// FixturePrice is one price row.
type FixturePrice struct {
	ID        int64     `yaml:"id"`
	Amount    int64     `yaml:"amount"`
	Active    bool      `yaml:"active"`
	StartDate time.Time `yaml:"start_date"`
}

// FixtureProduct is one product with its prices and optional specification.
type FixtureProduct struct {
	ID          int64          `yaml:"id"`
	Name        string         `yaml:"name"`
	BrandID     int64          `yaml:"brand_id"`
	Status      string         `yaml:"status"`
	Rating      float64        `yaml:"rating"`
	Description string         `yaml:"description"`
	Prices      []FixturePrice `yaml:"prices"`
	Spec        *FixtureSpec   `yaml:"spec"`
}

// FixtureSpec is the optional specification row of a product.
type FixtureSpec struct {
	Screen      string `yaml:"screen"`
	RearCamera  string `yaml:"rear_camera"`
	FrontCamera string `yaml:"front_camera"`
	Chipset     string `yaml:"chipset"`
	RAM         string `yaml:"ram"`
	Storage     string `yaml:"storage"`
	Battery     string `yaml:"battery"`
	OS          string `yaml:"os"`
	Weight      string `yaml:"weight"`
}

// LoadFixture decodes a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Seed inserts the fixture. Rows whose primary key already exists are left
// untouched, so seeding twice is harmless.
func Seed(ctx context.Context, db DB, f *Fixture) error {
	for _, b := range f.Brands {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO brands (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			b.ID, b.Name,
		); err != nil {
			return fmt.Errorf("insert brand %d: %w", b.ID, err)
		}
	}

	for _, p := range f.Products {
		var brandID any
		if p.BrandID != 0 {
			brandID = p.BrandID
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO products (id, name, brand_id, status, rating, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, brandID, p.Status, p.Rating, p.Description, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}

		for _, pr := range p.Prices {
			var start any
			if !pr.StartDate.IsZero() {
				start = pr.StartDate.UTC()
			}
			if _, err := db.ExecContext(ctx, `
				INSERT INTO prices (id, product_id, amount, is_active, start_date)
				VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
				pr.ID, p.ID, pr.Amount, pr.Active, start,
			); err != nil {
				return fmt.Errorf("insert price %d: %w", pr.ID, err)
			}
		}

		if s := p.Spec; s != nil {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO specifications
					(product_id, screen, rear_camera, front_camera, chipset, ram, storage, battery, os, weight)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (product_id) DO NOTHING`,
				p.ID, s.Screen, s.RearCamera, s.FrontCamera, s.Chipset, s.RAM, s.Storage, s.Battery, s.OS, s.Weight,
			); err != nil {
				return fmt.Errorf("insert specification %d: %w", p.ID, err)
			}
		}
	}
	return nil
}
