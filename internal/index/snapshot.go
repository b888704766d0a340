package index

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrSnapshotMissing is returned by Load when no complete snapshot exists.
var ErrSnapshotMissing = errors.New("index snapshot missing")

const (
	currentFile  = "CURRENT"
	vectorsFile  = "vectors.gob"
	docstoreFile = "docstore.json"
)

// Record is the persisted docstore entry paired with a vector.
type Record struct {
	Content string   `json:"content"`
	Meta    Metadata `json:"metadata"`
}

// snapshot is an immutable in-memory index state. Vectors are stored
// L2-normalized so similarity reduces to a dot product.
type snapshot struct {
	Vectors [][]float32
	Records []Record
}

// writeSnapshot persists snap as a fresh versioned directory under dir and
// then points CURRENT at it via a rename, which is the only step readers
// can observe. A crash mid-write leaves CURRENT at the previous complete
// snapshot; the orphaned directory is swept on the next publish.
func writeSnapshot(dir string, snap *snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}

	name := "snap-" + uuid.New().String()
	snapDir := filepath.Join(dir, name)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	if err := writeVectors(filepath.Join(snapDir, vectorsFile), snap.Vectors); err != nil {
		os.RemoveAll(snapDir)
		return err
	}
	if err := writeDocstore(filepath.Join(snapDir, docstoreFile), snap.Records); err != nil {
		os.RemoveAll(snapDir)
		return err
	}

	previous, _ := readCurrent(dir)

	tmp := filepath.Join(dir, currentFile+".tmp")
	if err := writePointer(tmp, name); err != nil {
		os.RemoveAll(snapDir)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, currentFile)); err != nil {
		os.Remove(tmp)
		os.RemoveAll(snapDir)
		return fmt.Errorf("swapping snapshot pointer: %w", err)
	}

	if previous != "" && previous != name {
		os.RemoveAll(filepath.Join(dir, previous))
	}
	return nil
}

// loadSnapshot reads the snapshot CURRENT points at. Both artifact files
// must exist together; a half-present pair counts as missing.
func loadSnapshot(dir string) (*snapshot, error) {
	name, err := readCurrent(dir)
	if err != nil {
		return nil, err
	}
	snapDir := filepath.Join(dir, name)

	vectors, err := readVectors(filepath.Join(snapDir, vectorsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotMissing
		}
		return nil, err
	}
	records, err := readDocstore(filepath.Join(snapDir, docstoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotMissing
		}
		return nil, err
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("snapshot %s inconsistent: %d vectors, %d records", name, len(vectors), len(records))
	}

	return &snapshot{Vectors: vectors, Records: records}, nil
}

// writePointer writes and syncs the pointer file so the subsequent rename
// never installs a partially written name.
func writePointer(path, name string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot pointer: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(name); err != nil {
		return fmt.Errorf("writing snapshot pointer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot pointer: %w", err)
	}
	return nil
}

func readCurrent(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, currentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrSnapshotMissing
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", ErrSnapshotMissing
	}
	return name, nil
}

func writeVectors(path string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vectors file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(vectors); err != nil {
		return fmt.Errorf("encoding vectors: %w", err)
	}
	return f.Sync()
}

func readVectors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vectors [][]float32
	if err := gob.NewDecoder(f).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding vectors: %w", err)
	}
	return vectors, nil
}

func writeDocstore(path string, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding docstore: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating docstore file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing docstore: %w", err)
	}
	return f.Sync()
}

func readDocstore(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding docstore: %w", err)
	}
	return records, nil
}
