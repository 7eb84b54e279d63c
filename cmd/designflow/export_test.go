package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.gltf")
	var out bytes.Buffer

	require.NoError(t, runExport([]string{`{"width":20,"height":4,"color":255}`, path}, &out))
	assert.Contains(t, out.String(), path)

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	pos := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]]
	assert.Equal(t, []float64{10, 2, 5}, pos.Max)
	assert.Equal(t, [4]float64{0, 0, 1, 1}, *doc.Materials[0].PBRMetallicRoughness.BaseColorFactor)
}

func TestRunExport_Errors(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, runExport(nil, &bytes.Buffer{}))
	assert.Error(t, runExport([]string{"{}"}, &bytes.Buffer{}))
	assert.Error(t, runExport([]string{"not json", filepath.Join(dir, "a.gltf")}, &bytes.Buffer{}))
	assert.Error(t, runExport([]string{"{}", filepath.Join(dir, "missing", "a.gltf")}, &bytes.Buffer{}))
}

func TestParseSnapshot_Canonical(t *testing.T) {
	snap, err := parseSnapshot(`{"width":12,"shape":"sphere"}`)
	require.NoError(t, err)
	assert.Equal(t, 12.0, snap["width"])
	assert.Equal(t, "sphere", snap["shape"])
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	assert.Contains(t, out.String(), "DesignFlow "+Version)

	out.Reset()
	printUsage(&out)
	assert.Contains(t, out.String(), "export")
	assert.Contains(t, out.String(), "DESIGNFLOW_STORE_TYPE")
	assert.Contains(t, out.String(), "OPENAI_API_KEY")
}
