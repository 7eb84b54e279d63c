package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/BaSui01/designflow/export"
	"github.com/BaSui01/designflow/preference"
)

// =============================================================================
// 🧊 export 命令
// =============================================================================

// runExport 处理 designflow export '<snapshot-json>' <output-path>
func runExport(args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: designflow export '<snapshot-json>' <output-path>")
	}

	snap, err := parseSnapshot(args[0])
	if err != nil {
		return err
	}

	doc := export.BuildScene(export.ParamsFromSnapshot(snap))
	if err := export.WriteFile(args[1], doc); err != nil {
		return err
	}

	fmt.Fprintf(out, "glTF written to %s\n", args[1])
	return nil
}

func parseSnapshot(raw string) (preference.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var snap preference.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse snapshot json: %w", err)
	}
	return preference.Canonical(snap), nil
}
