package slicer

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/reglet-dev/autoslice/internal/infrastructure/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	command string
	args    []string
	result  process.Result
	err     error
}

func (r *stubRunner) Run(_ context.Context, command string, args ...string) (process.Result, error) {
	r.command = command
	r.args = args
	return r.result, r.err
}

func job() entities.SliceJob {
	return entities.SliceJob{
		Artifact: entities.Artifact{
			Project:     entities.Project{Path: "/p/box.3mf", RelPath: "box.3mf"},
			Permutation: values.NewPermutation("mk3", "", "draft"),
			Path:        "/p/gcode/box_mk3-none-draft.gcode",
			RelPath:     "box_mk3-none-draft.gcode",
		},
		ProfileFiles: []string{"/prusa/printer/mk3.ini", "/prusa/print/draft.ini"},
	}
}

func TestPrusaSlicer_Args(t *testing.T) {
	runner := &stubRunner{}
	slicer := NewPrusaSlicer(runner, "")

	require.NoError(t, slicer.Slice(context.Background(), job()))
	assert.Equal(t, DefaultCommand, runner.command)
	assert.Equal(t, []string{
		"-o", "/p/gcode/box_mk3-none-draft.gcode",
		"-g", "/p/box.3mf",
		"--load", "/prusa/printer/mk3.ini",
		"--load", "/prusa/print/draft.ini",
	}, runner.args)
}

func TestPrusaSlicer_Failure(t *testing.T) {
	runner := &stubRunner{
		result: process.Result{Stderr: "invalid profile", ExitCode: 1},
		err:    errors.New("exit status 1"),
	}
	slicer := NewPrusaSlicer(runner, "prusa-slicer-console")

	err := slicer.Slice(context.Background(), job())

	var sliceErr *apperrors.SliceError
	require.True(t, errors.As(err, &sliceErr))
	assert.Equal(t, "box_mk3-none-draft.gcode", sliceErr.Artifact)
	assert.Equal(t, "invalid profile", sliceErr.Output)
	assert.Equal(t, "prusa-slicer-console", runner.command)
}
