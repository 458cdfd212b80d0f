package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const commandTimeout = 60 * time.Second

// Archive is the snapshot history the commands read and write.
type Archive interface {
	Record(ctx context.Context, snapshot domain.Snapshot) (domain.Snapshot, error)
	Load(ctx context.Context, id string) (domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.SnapshotHeader, error)
	Delta(ctx context.Context, id, previousID string) (domain.DeltaReport, error)
}

// Env is filled in by the root command before any subcommand runs.
type Env struct {
	Service  assessment.Service
	Archive  Archive
	Reporter *export.Reporter
}

func (e *Env) archive() (Archive, error) {
	if e.Archive == nil {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}
	return e.Archive, nil
}

// readInput decodes path into v and validates it. YAML is the default format;
// files ending in .json are decoded as JSON. "-" reads stdin.
func readInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return api.Validate(v)
}

// readSnapshot loads a snapshot document as returned by the API.
func readSnapshot(ctx context.Context, path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var doc api.Snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	snapshot, err := adapters.MapSnapshotApiToDomain(ctx, doc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	return snapshot, nil
}
