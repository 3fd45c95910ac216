package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	postsBucket   = []byte("posts")
	originsBucket = []byte("origins")
)

// ErrNotFound is returned when a post or origin does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps posts and their import origins in a bbolt database.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{postsBucket, originsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SavePosts(posts []*Post) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(postsBucket)
		for _, post := range posts {
			if post.ID == "" {
				return fmt.Errorf("post %q has no id", post.Title)
			}
			data, err := json.Marshal(post)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(post.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetPost(id string) (*Post, error) {
	var post Post
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(postsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns every stored post, newest first. Records that no
// longer decode are skipped.
func (s *Store) ListPosts(_ context.Context) ([]*Post, error) {
	var posts []*Post
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(postsBucket).ForEach(func(_ []byte, v []byte) error {
			var post Post
			if err := json.Unmarshal(v, &post); err != nil {
				return nil
			}
			posts = append(posts, &post)
			return nil
		})
	})
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	return posts, err
}

func (s *Store) DeletePost(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(postsBucket).Delete([]byte(id))
	})
}

func (s *Store) SaveOrigin(origin *Origin) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(origin)
		if err != nil {
			return err
		}
		return tx.Bucket(originsBucket).Put([]byte(origin.ID), data)
	})
}

func (s *Store) GetOrigin(id string) (*Origin, error) {
	var origin Origin
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(originsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("origin %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &origin)
	})
	if err != nil {
		return nil, err
	}
	return &origin, nil
}

// ListOrigins returns origins sorted by title (case-insensitive), falling
// back to URL.
func (s *Store) ListOrigins() ([]*Origin, error) {
	var origins []*Origin
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(originsBucket).ForEach(func(_ []byte, v []byte) error {
			var origin Origin
			if err := json.Unmarshal(v, &origin); err != nil {
				return err
			}
			origins = append(origins, &origin)
			return nil
		})
	})
	sort.Slice(origins, func(i, j int) bool {
		ti, tj := origins[i].Title, origins[j].Title
		if ti == "" {
			ti = origins[i].URL
		}
		if tj == "" {
			tj = origins[j].URL
		}
		return strings.ToLower(ti) < strings.ToLower(tj)
	})
	return origins, err
}

// DeleteOrigin removes an origin together with every post imported from it.
func (s *Store) DeleteOrigin(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(originsBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(postsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var post Post
			if err := json.Unmarshal(v, &post); err != nil {
				continue
			}
			if post.OriginID == id {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
