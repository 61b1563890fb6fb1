package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/nestegg-app/nestegg/internal/api"
)

// ErrNotFound is returned when a record is not in the store.
var ErrNotFound = errors.New("record not found")

// Bucket names.
const (
	bucketGoals         = "goals"
	bucketItems         = "items"
	bucketAccounts      = "accounts"
	bucketCategories    = "categories"
	bucketSubcategories = "subcategories"
	bucketMeta          = "meta"
)

const metaKeySeeded = "seeded"

// Store wraps the bbolt database backing the dev server. Records are
// JSON-encoded under their string IDs; each carries a bucket sequence
// number so listings have a stable order independent of key order.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the database at path and ensures all buckets
// exist.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := []string{
			bucketGoals, bucketItems, bucketAccounts,
			bucketCategories, bucketSubcategories, bucketMeta,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// goalRecord is a stored goal. Account links are kept as references and
// resolved against the accounts bucket when the goal is rendered.
type goalRecord struct {
	Seq          uint64              `json:"seq"`
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description"`
	GoalType     api.GoalType        `json:"goal_type"`
	TargetAmount float64             `json:"target_amount"`
	TargetDate   *string             `json:"target_date"`
	IsCompleted  bool                `json:"is_completed"`
	Accounts     []goalAccountRecord `json:"accounts"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

type goalAccountRecord struct {
	ID                   string   `json:"id"`
	SimplefinAccountID   string   `json:"simplefin_account_id"`
	AllocationPercentage float64  `json:"allocation_percentage"`
	StartingBalance      *float64 `json:"starting_balance"`
}

type itemRecord struct {
	Seq uint64 `json:"seq"`
	api.LinkedItem
}

type accountRecord struct {
	Seq    uint64 `json:"seq"`
	ItemID string `json:"item_id"`
	api.Account
}

type categoryRecord struct {
	Seq          uint64  `json:"seq"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Icon         *string `json:"icon"`
	Color        *string `json:"color"`
	DisplayOrder int     `json:"display_order"`
	IsDefault    bool    `json:"is_default"`
}

type subcategoryRecord struct {
	Seq          uint64  `json:"seq"`
	ID           string  `json:"id"`
	CategoryID   string  `json:"category_id"`
	Name         string  `json:"name"`
	Icon         *string `json:"icon"`
	DisplayOrder int     `json:"display_order"`
	IsDefault    bool    `json:"is_default"`
}

// put stores a JSON-encoded value under key in the named bucket.
func (s *Store) put(bucket, key string, value any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

// get loads the value under key in the named bucket into out.
func (s *Store) get(bucket, key string, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, out)
	})
}

// delete removes the value under key. Missing keys are not an error; use
// get first when absence matters.
func (s *Store) delete(bucket, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Delete([]byte(key))
	})
}

// list returns every raw value in the named bucket.
func (s *Store) list(bucket string) ([][]byte, error) {
	var results [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.ForEach(func(k, v []byte) error {
			// Values are only valid inside the transaction.
			copied := make([]byte, len(v))
			copy(copied, v)
			results = append(results, copied)
			return nil
		})
	})
	return results, err
}

// nextSeq reserves the next sequence number in the named bucket.
func (s *Store) nextSeq(bucket string) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		seq = n
		return nil
	})
	return seq, err
}

func (s *Store) putGoal(g goalRecord) error {
	return s.put(bucketGoals, g.ID, g)
}

func (s *Store) getGoal(id string) (goalRecord, error) {
	var g goalRecord
	err := s.get(bucketGoals, id, &g)
	return g, err
}

func (s *Store) deleteGoal(id string) error {
	return s.delete(bucketGoals, id)
}

// listGoals returns all goals, newest first.
func (s *Store) listGoals() ([]goalRecord, error) {
	raw, err := s.list(bucketGoals)
	if err != nil {
		return nil, err
	}
	goals := make([]goalRecord, 0, len(raw))
	for _, data := range raw {
		var g goalRecord
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode goal: %w", err)
		}
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].Seq > goals[j].Seq })
	return goals, nil
}

func (s *Store) putItem(it itemRecord) error {
	return s.put(bucketItems, it.ID, it)
}

// listItems returns linked items in insertion order.
func (s *Store) listItems() ([]itemRecord, error) {
	raw, err := s.list(bucketItems)
	if err != nil {
		return nil, err
	}
	items := make([]itemRecord, 0, len(raw))
	for _, data := range raw {
		var it itemRecord
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	return items, nil
}

func (s *Store) getItem(id string) (itemRecord, error) {
	var it itemRecord
	err := s.get(bucketItems, id, &it)
	return it, err
}

func (s *Store) putAccount(a accountRecord) error {
	return s.put(bucketAccounts, a.Account.ID, a)
}

func (s *Store) listAccounts() ([]accountRecord, error) {
	raw, err := s.list(bucketAccounts)
	if err != nil {
		return nil, err
	}
	accounts := make([]accountRecord, 0, len(raw))
	for _, data := range raw {
		var a accountRecord
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Seq < accounts[j].Seq })
	return accounts, nil
}

// listItemAccounts returns the accounts under one item in insertion order.
func (s *Store) listItemAccounts(itemID string) ([]accountRecord, error) {
	all, err := s.listAccounts()
	if err != nil {
		return nil, err
	}
	accounts := make([]accountRecord, 0, len(all))
	for _, a := range all {
		if a.ItemID == itemID {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

// accountBySimplefinID finds the account carrying the given aggregator ID.
func (s *Store) accountBySimplefinID(sfID string) (accountRecord, error) {
	all, err := s.listAccounts()
	if err != nil {
		return accountRecord{}, err
	}
	for _, a := range all {
		if a.SimplefinAccountID == sfID {
			return a, nil
		}
	}
	return accountRecord{}, ErrNotFound
}

func (s *Store) putCategory(c categoryRecord) error {
	return s.put(bucketCategories, c.ID, c)
}

func (s *Store) getCategory(id string) (categoryRecord, error) {
	var c categoryRecord
	err := s.get(bucketCategories, id, &c)
	return c, err
}

// listCategories returns categories ordered by display order.
func (s *Store) listCategories() ([]categoryRecord, error) {
	raw, err := s.list(bucketCategories)
	if err != nil {
		return nil, err
	}
	cats := make([]categoryRecord, 0, len(raw))
	for _, data := range raw {
		var c categoryRecord
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode category: %w", err)
		}
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return cats[i].Seq < cats[j].Seq
	})
	return cats, nil
}

func (s *Store) putSubcategory(sub subcategoryRecord) error {
	return s.put(bucketSubcategories, sub.ID, sub)
}

// listSubcategories returns all subcategories ordered by display order.
func (s *Store) listSubcategories() ([]subcategoryRecord, error) {
	raw, err := s.list(bucketSubcategories)
	if err != nil {
		return nil, err
	}
	subs := make([]subcategoryRecord, 0, len(raw))
	for _, data := range raw {
		var sub subcategoryRecord
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("decode subcategory: %w", err)
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].DisplayOrder != subs[j].DisplayOrder {
			return subs[i].DisplayOrder < subs[j].DisplayOrder
		}
		return subs[i].Seq < subs[j].Seq
	})
	return subs, nil
}

// seeded reports whether default categories have already been created.
func (s *Store) seeded() (bool, error) {
	var flag bool
	err := s.get(bucketMeta, metaKeySeeded, &flag)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return flag, nil
}

func (s *Store) setSeeded() error {
	return s.put(bucketMeta, metaKeySeeded, true)
}

// hasItems reports whether any linked items have been loaded.
func (s *Store) hasItems() (bool, error) {
	items, err := s.listItems()
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}
