package server

import (
	"context"

	"github.com/limaJavier/invigilation/pkg/model"
)

// Source supplies the snapshot of rooms, exams, teachers and leaves an allocation runs on
type Source interface {
	Load(ctx context.Context) (model.Input, error)
}

type SourceFunc func(ctx context.Context) (model.Input, error)

func (f SourceFunc) Load(ctx context.Context) (model.Input, error) {
	return f(ctx)
}

// FileSource reads the snapshot from a JSON file on every load so edits are picked up without a restart
type FileSource struct {
	Path string
}

func (source FileSource) Load(ctx context.Context) (model.Input, error) {
	if err := ctx.Err(); err != nil {
		return model.Input{}, err
	}
	return model.InputFromJson(source.Path)
}
