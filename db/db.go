package db

// DB defines the interface for database operations
type DB interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	ForEach(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// Open returns the on-disk database at path, or an in-memory one when path
// is empty.
func Open(path string) (DB, error) {
	var (
		l   *LevelDB
		err error
	)
	if path == "" {
		l, err = NewMemLevelDB()
	} else {
		l, err = NewLevelDB(path)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
