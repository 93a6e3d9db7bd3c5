package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/wfdiagram/pkg/errors"
)

// =============================================================================
// Workflow Serialization API
// =============================================================================

// MarshalWorkflow converts a Workflow to indented JSON bytes.
func MarshalWorkflow(w Workflow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkflow(w, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWorkflowFile writes a Workflow to a JSON file.
// The file is created with 0644 permissions.
func WriteWorkflowFile(w Workflow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteWorkflow(w, f)
}

// WriteWorkflow writes a Workflow as JSON to an io.Writer.
func WriteWorkflow(w Workflow, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadWorkflowFile reads and validates a JSON workflow file.
func ReadWorkflowFile(path string) (Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Workflow{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Workflow{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkflow(f)
}

// ReadWorkflow decodes and validates a JSON workflow from an io.Reader.
func ReadWorkflow(r io.Reader) (Workflow, error) {
	var w Workflow
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Workflow{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode workflow")
	}
	if err := w.Validate(); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

// UnmarshalWorkflow decodes and validates workflow JSON bytes.
func UnmarshalWorkflow(data []byte) (Workflow, error) {
	return ReadWorkflow(bytes.NewReader(data))
}
