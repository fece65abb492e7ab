package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	lerrors "github.com/matzehuels/lineage/pkg/errors"
)

// =============================================================================
// Reading and Writing
// =============================================================================

// MarshalGraph returns g as indented JSON.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	err := WriteGraph(g, &buf)
	return buf.Bytes(), err
}

// UnmarshalGraph is [ReadGraph] over a byte slice.
func UnmarshalGraph(data []byte) (Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// WriteGraph encodes g as indented JSON followed by a newline.
func WriteGraph(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

// WriteGraphFile writes g to path through a temporary file in the same
// directory, so readers never see a partial graph.
func WriteGraphFile(g Graph, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".graph-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteGraph(g, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadGraph decodes a graph and checks it with [Validate]. Both failures
// are INVALID_INPUT errors.
func ReadGraph(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, lerrors.Wrap(lerrors.ErrCodeInvalidInput, err, "decode graph")
	}
	if err := Validate(g); err != nil {
		return Graph{}, lerrors.Wrap(lerrors.ErrCodeInvalidInput, err, "invalid graph")
	}
	return g, nil
}

// ReadGraphFile is [ReadGraph] on the file at path. A missing file is a
// FILE_NOT_FOUND error.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Graph{}, lerrors.Wrap(lerrors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return Graph{}, err
	}
	defer f.Close()
	return ReadGraph(f)
}
