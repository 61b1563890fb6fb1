package devserver

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nestegg-app/nestegg/internal/api"
)

//go:embed fixtures/default.yaml
var defaultFixtureYAML []byte

// Fixtures holds the dev server's seed data: the linked items and accounts
// loaded on first start, and the category template applied by the
// seed-defaults endpoint.
type Fixtures struct {
	Items      []ItemFixture     `yaml:"items"`
	Categories []CategoryFixture `yaml:"categories"`
}

// ItemFixture is one bank connection with its accounts.
type ItemFixture struct {
	ID              string           `yaml:"id"`
	InstitutionName string           `yaml:"institution_name"`
	Status          string           `yaml:"status"`
	Accounts        []AccountFixture `yaml:"accounts"`
}

// AccountFixture is one bank account under an item.
type AccountFixture struct {
	ID                 string   `yaml:"id"`
	SimplefinAccountID string   `yaml:"simplefin_account_id"`
	Name               string   `yaml:"name"`
	Currency           string   `yaml:"currency"`
	Balance            *float64 `yaml:"balance"`
	AvailableBalance   *float64 `yaml:"available_balance"`
	OrganizationName   *string  `yaml:"organization_name"`
	OrganizationDomain *string  `yaml:"organization_domain"`
}

// CategoryFixture is one entry of the default category template.
type CategoryFixture struct {
	Name          string               `yaml:"name"`
	Icon          string               `yaml:"icon"`
	Color         string               `yaml:"color"`
	DisplayOrder  int                  `yaml:"display_order"`
	Subcategories []SubcategoryFixture `yaml:"subcategories"`
}

// SubcategoryFixture is one subcategory of the default template.
type SubcategoryFixture struct {
	Name         string `yaml:"name"`
	Icon         string `yaml:"icon"`
	DisplayOrder int    `yaml:"display_order"`
}

// DefaultFixtures parses the embedded fixture data.
func DefaultFixtures() (*Fixtures, error) {
	return parseFixtures(defaultFixtureYAML)
}

// LoadFixturesFile parses fixture data from a YAML file on disk.
func LoadFixturesFile(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return parseFixtures(data)
}

func parseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fx, nil
}

// Bootstrap loads the fixture items and accounts into the store. It is a
// no-op when items already exist so restarts keep prior data.
func (s *Store) Bootstrap(fx *Fixtures) error {
	loaded, err := s.hasItems()
	if err != nil {
		return err
	}
	if loaded {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, itemFx := range fx.Items {
		itemID := itemFx.ID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		seq, err := s.nextSeq(bucketItems)
		if err != nil {
			return err
		}
		name := itemFx.InstitutionName
		synced := now
		item := itemRecord{
			Seq: seq,
			LinkedItem: api.LinkedItem{
				ID:              itemID,
				InstitutionName: &name,
				Status:          itemFx.Status,
				LastSyncedAt:    &synced,
				CreatedAt:       now,
				UpdatedAt:       now,
			},
		}
		if err := s.putItem(item); err != nil {
			return err
		}

		for _, accFx := range itemFx.Accounts {
			accID := accFx.ID
			if accID == "" {
				accID = uuid.NewString()
			}
			seq, err := s.nextSeq(bucketAccounts)
			if err != nil {
				return err
			}
			acc := accountRecord{
				Seq:    seq,
				ItemID: itemID,
				Account: api.Account{
					ID:                 accID,
					SimplefinAccountID: accFx.SimplefinAccountID,
					Name:               accFx.Name,
					Currency:           accFx.Currency,
					Balance:            accFx.Balance,
					AvailableBalance:   accFx.AvailableBalance,
					OrganizationName:   accFx.OrganizationName,
					OrganizationDomain: accFx.OrganizationDomain,
					CreatedAt:          now,
					UpdatedAt:          now,
				},
			}
			if err := s.putAccount(acc); err != nil {
				return err
			}
		}
	}
	return nil
}
