package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "revision_pipeline.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "revision_pipeline", scenario.Name)
	assert.NotEmpty(t, scenario.Description)
	assert.Len(t, scenario.Archives, 2)
	assert.Len(t, scenario.Steps, 8)
	assert.Equal(t, OpBuild, scenario.Steps[0].Op)
	assert.Equal(t, "night", scenario.Steps[1].SnapshotName())
	assert.Equal(t, []string{"ch-0001"}, scenario.Steps[3].Chapters)
	assert.True(t, scenario.Steps[3].WholeWord)
	assert.Equal(t, 99, scenario.Documents["legacy"].FormatVersion)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	content := `
name: disk
archives:
  book:
    - name: a.txt
      text: "A"
steps:
  - op: build
    archive: book
    as: built
assertions: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "disk", scenario.Name)
}

func TestStep_SnapshotName(t *testing.T) {
	assert.Equal(t, "saved", Step{As: "saved"}.SnapshotName())
	assert.Equal(t, "night", Step{As: "saved", Snapshot: "night"}.SnapshotName())
}

func TestParseScenario_Invalid(t *testing.T) {
	header := `
name: bad
documents:
  novel:
    chapters:
      - id: c1
        title: One
        text: "x"
archives:
  book:
    - name: a.txt
      text: "A"
`
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "name: [",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown field",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\n    typo: 1\n",
			wantErr: "field typo not found",
		},
		{
			name:    "missing name",
			content: "steps:\n  - op: build\n    archive: book\n    as: x\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			content: header,
			wantErr: "at least one step is required",
		},
		{
			name:    "chapter without id",
			content: "name: x\ndocuments:\n  d:\n    chapters:\n      - title: T\nsteps:\n  - op: replace\n    document: d\n    find: a\n    as: y\n",
			wantErr: "documents.d.chapters[0]: id is required",
		},
		{
			name:    "missing as",
			content: header + "steps:\n  - op: build\n    archive: book\n",
			wantErr: "steps[0]: as is required",
		},
		{
			name:    "duplicate result name",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: novel\n",
			wantErr: `result name "novel" already used`,
		},
		{
			name:    "unknown op",
			content: header + "steps:\n  - op: export\n    as: x\n",
			wantErr: `unknown op "export"`,
		},
		{
			name:    "undefined archive",
			content: header + "steps:\n  - op: build\n    archive: other\n    as: x\n",
			wantErr: `archive "other" is not defined`,
		},
		{
			name:    "missing merge input",
			content: header + "steps:\n  - op: merge\n    base: novel\n    as: x\n",
			wantErr: "incoming is required for merge",
		},
		{
			name:    "forward reference",
			content: header + "steps:\n  - op: replace\n    document: later\n    find: a\n    as: x\n  - op: build\n    archive: book\n    as: later\n",
			wantErr: `document "later" is not defined`,
		},
		{
			name:    "unknown assertion",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: trace_order\n",
			wantErr: `unknown assertion type: "trace_order"`,
		},
		{
			name:    "assertion without type",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - document: x\n",
			wantErr: "assertion type is required",
		},
		{
			name:    "chapter_count without count",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: chapter_count\n    document: x\n",
			wantErr: "chapter_count requires 'count' field",
		},
		{
			name:    "titles on undefined document",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: chapter_titles\n    document: y\n    titles: []\n",
			wantErr: `document "y" is not defined`,
		},
		{
			name:    "error_code on unknown step",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: error_code\n    step: z\n    code: EMPTY_ARCHIVE\n",
			wantErr: `step "z" is not defined`,
		},
		{
			name:    "report_counts without counts",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: report_counts\n    step: x\n",
			wantErr: "report_counts requires 'counts' field",
		},
		{
			name:    "snapshot never taken",
			content: header + "steps:\n  - op: build\n    archive: book\n    as: x\nassertions:\n  - type: snapshot_count\n    name: x\n    count: 1\n",
			wantErr: `snapshot "x" is never taken`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
