package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/apid/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Samples []dynamo.Sample `json:"samples"`
}

// ExportJSON writes a run's metadata and trajectory as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	return WriteJSON(w, *meta, samples)
}

func WriteJSON(w io.Writer, meta RunMetadata, samples []dynamo.Sample) error {
	data := ExportData{RunMetadata: meta, Samples: samples}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
