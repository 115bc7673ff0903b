package invoice

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var validOrderID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileName returns the invoice file name for orderID.
func FileName(orderID string) string {
	return "invoice_" + orderID + ".pdf"
}

// FileStore keeps invoices as files in a local directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns where the invoice for orderID is stored.
func (s *FileStore) Path(orderID string) (string, error) {
	if !validOrderID.MatchString(orderID) {
		return "", fmt.Errorf("invalid order id %q for invoice path", orderID)
	}
	return filepath.Join(s.dir, FileName(orderID)), nil
}

// Exists reports whether an invoice for orderID has been stored.
func (s *FileStore) Exists(orderID string) (bool, error) {
	path, err := s.Path(orderID)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat invoice: %w", err)
	}
}

// Write stores the output of render as the invoice for orderID. Readers
// never observe a partially written file.
func (s *FileStore) Write(orderID string, render func(io.Writer) error) (string, error) {
	path, err := s.Path(orderID)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".invoice-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp invoice: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp invoice: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store invoice: %w", err)
	}
	return path, nil
}
