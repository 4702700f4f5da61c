package storage

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
	"github.com/nikmy/roombook/pkg/logger"
)

type FileConfig struct {
	Path string `yaml:"path"`
}

func newFileStore(cfg FileConfig, log logger.Logger) *fileStore {
	path := cfg.Path
	if path == "" {
		path = "bookings.json"
	}

	return &fileStore{
		fileName: path,
		log:      log.With("file_store"),
	}
}

type fileStore struct {
	fileName string
	log      logger.Logger
}

func (s *fileStore) Save(_ context.Context, snapshots []ledger.ResourceSnapshot) error {
	s.log.Debugf("saving %d resource(s) to %s", len(snapshots), s.fileName)

	bytes, err := json.Marshal(snapshots)
	if err != nil {
		return errors.WrapFail(err, "marshal snapshots")
	}

	// write aside and rename, so a crash never leaves a truncated file
	tmp, err := os.CreateTemp(filepath.Dir(s.fileName), filepath.Base(s.fileName)+".*")
	if err != nil {
		return errors.WrapFail(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(bytes)
	if err != nil {
		_ = tmp.Close()
		return errors.WrapFailf(err, "write %s", tmp.Name())
	}

	err = tmp.Close()
	if err != nil {
		return errors.WrapFailf(err, "close %s", tmp.Name())
	}

	err = os.Rename(tmp.Name(), s.fileName)
	return errors.WrapFailf(err, "replace %s", s.fileName)
}

func (s *fileStore) Load(context.Context) ([]ledger.ResourceSnapshot, error) {
	s.log.Debugf("reading data from %s", s.fileName)

	bytes, err := os.ReadFile(s.fileName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapFailf(err, "read %s", s.fileName)
	}

	var snapshots []ledger.ResourceSnapshot
	err = json.Unmarshal(bytes, &snapshots)
	if err != nil {
		return nil, errors.Wrap(errors.Join(ledger.ErrCorruptData, err), "decode "+s.fileName)
	}
	return snapshots, nil
}

func (s *fileStore) Close(context.Context) error {
	return nil
}
