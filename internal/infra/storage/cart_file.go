package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

const DefaultCartNamespace = "eatosnap-cart"

// FileCartStore keeps the cart as JSON in <dir>/<namespace>.json. Writes go
// through a temp file and a rename so a crash never leaves half a cart.
type FileCartStore struct {
	path string
}

var _ outbound.CartStore = (*FileCartStore)(nil)

func NewFileCartStore(dir, namespace string) (*FileCartStore, error) {
	if namespace == "" {
		namespace = DefaultCartNamespace
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &FileCartStore{path: filepath.Join(dir, namespace+".json")}, nil
}

func (s *FileCartStore) Path() string { return s.path }

func (s *FileCartStore) Load(_ context.Context) (entity.CartSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return entity.CartSnapshot{Items: []entity.CartLine{}}, nil
	}
	if err != nil {
		return entity.CartSnapshot{}, err
	}
	return decodeCart(data)
}

func (s *FileCartStore) Save(_ context.Context, snap entity.CartSnapshot) error {
	data, err := encodeCart(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cart-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func encodeCart(snap entity.CartSnapshot) ([]byte, error) {
	if snap.Items == nil {
		snap.Items = []entity.CartLine{}
	}
	return json.Marshal(snap)
}

func decodeCart(data []byte) (entity.CartSnapshot, error) {
	var snap entity.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return entity.CartSnapshot{}, fmt.Errorf("corrupt cart: %w", err)
	}
	if snap.Items == nil {
		snap.Items = []entity.CartLine{}
	}
	return snap, nil
}
