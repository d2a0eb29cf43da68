package tracking

import (
	"context"
	"fmt"
)

// FileSink stores an exported document and returns an identifier for it.
type FileSink interface {
	SaveTrack(ctx context.Context, name string, data []byte) (string, error)
}

type Exporter struct {
	recorder *Recorder
	sink     FileSink
	name     string
}

func NewExporter(recorder *Recorder, sink FileSink, name string) *Exporter {
	return &Exporter{recorder: recorder, sink: sink, name: name}
}

func (e *Exporter) Name() string {
	return e.name
}

// Render serializes the current track without storing it.
func (e *Exporter) Render() ([]byte, int, error) {
	doc, err := e.recorder.ExportTrack()
	if err != nil {
		return nil, 0, err
	}
	data, err := doc.Bytes()
	if err != nil {
		return nil, 0, err
	}
	return data, doc.Len(), nil
}

// Export serializes the current track and hands it to the file sink.
func (e *Exporter) Export(ctx context.Context) (ExportResult, error) {
	data, count, err := e.Render()
	if err != nil {
		return ExportResult{}, err
	}
	if e.sink == nil {
		return ExportResult{}, fmt.Errorf("export %s: no file sink configured", e.name)
	}
	id, err := e.sink.SaveTrack(ctx, e.name, data)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export %s: %w", e.name, err)
	}
	return ExportResult{ID: id, Name: e.name, PointCount: count}, nil
}
