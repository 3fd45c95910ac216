package posts

import (
	"fmt"
	"io"

	"github.com/pders01/folio/internal/config"
)

// Open returns the source selected by cfg.Driver. The returned closer
// releases any database handle and is never nil.
func Open(cfg config.PostsConfig) (Source, io.Closer, error) {
	switch cfg.Driver {
	case "", "dir":
		return NewDirSource(cfg.Dir), nopCloser{}, nil
	case "bolt":
		store, err := NewStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("posts driver postgres requires posts.dsn")
		}
		src, err := OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	default:
		return nil, nil, fmt.Errorf("unknown posts driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
