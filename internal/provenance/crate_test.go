// ABOUTME: Tests for the local RO-Crate store and provenance file loading.
// ABOUTME: Registers entities into temp directories and inspects the written JSON.
package provenance

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/models"
)

func fixedStore() *CrateStore {
	s := NewCrateStore()
	s.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return s
}

func registerCrate(t *testing.T, s *CrateStore, dir string) {
	t.Helper()
	err := s.RegisterROCrate(context.Background(), dir, models.CrateMetadata{
		Name:             "PPI run",
		OrganizationName: "Ideker Lab",
		ProjectName:      "CM4AI",
		Description:      "test crate",
	})
	if err != nil {
		t.Fatalf("RegisterROCrate error: %v", err)
	}
}

func readDoc(t *testing.T, dir string) *crateDocument {
	t.Helper()
	data, err := os.ReadFile(CratePath(dir))
	if err != nil {
		t.Fatalf("failed to read crate: %v", err)
	}
	var doc crateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("failed to parse crate: %v", err)
	}
	return &doc
}

func TestRegisterROCrateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := fixedStore()
	registerCrate(t, s, dir)

	crate, err := s.ReadInputCrate(dir)
	if err != nil {
		t.Fatalf("ReadInputCrate error: %v", err)
	}
	if !strings.HasPrefix(crate.ID, ArkPrefix+"rocrate-ppi-run-") {
		t.Errorf("unexpected crate id %q", crate.ID)
	}
	want := &InputCrate{
		ID:               crate.ID,
		Name:             "PPI run",
		OrganizationName: "Ideker Lab",
		ProjectName:      "CM4AI",
		Description:      "test crate",
		Keywords:         []string{},
	}
	if diff := cmp.Diff(want, crate); diff != "" {
		t.Errorf("crate mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterROCrateMissingFields(t *testing.T) {
	tests := []struct {
		name string
		meta models.CrateMetadata
	}{
		{"no name", models.CrateMetadata{OrganizationName: "o", ProjectName: "p"}},
		{"no organization", models.CrateMetadata{Name: "n", ProjectName: "p"}},
		{"no project", models.CrateMetadata{Name: "n", OrganizationName: "o"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			err := NewCrateStore().RegisterROCrate(context.Background(), dir, tt.meta)
			if !errs.IsProvenance(err) {
				t.Errorf("expected provenance error, got %v", err)
			}
			if _, statErr := os.Stat(CratePath(dir)); !os.IsNotExist(statErr) {
				t.Error("crate should not be written")
			}
		})
	}
}

func TestRegisterEntities(t *testing.T) {
	dir := t.TempDir()
	s := fixedStore()
	registerCrate(t, s, dir)
	ctx := context.Background()

	softwareID, err := s.RegisterSoftware(ctx, dir, models.SoftwareMetadata{
		Name:       "ppiembed",
		Version:    "1.0.0",
		FileFormat: "executable",
	})
	if err != nil {
		t.Fatalf("RegisterSoftware error: %v", err)
	}

	embPath := filepath.Join(dir, "ppi_emd.tsv")
	if err := os.WriteFile(embPath, []byte("\t1\nABC\t0.5\n"), 0644); err != nil {
		t.Fatalf("failed to write embedding: %v", err)
	}
	datasetID, err := s.RegisterDataset(ctx, dir, embPath, models.DatasetMetadata{
		Name:          "ppiembed output file",
		Description:   "PPI Embedding file",
		DataFormat:    "tsv",
		DatePublished: "03-09-2024",
	})
	if err != nil {
		t.Fatalf("RegisterDataset error: %v", err)
	}

	compID, err := s.RegisterComputation(ctx, dir, models.ComputationMetadata{
		Name:         "ppiembed",
		RunBy:        "tester",
		UsedSoftware: []string{softwareID},
		UsedDataset:  []string{"ark:59852/input"},
		Generated:    []string{datasetID},
	})
	if err != nil {
		t.Fatalf("RegisterComputation error: %v", err)
	}

	doc := readDoc(t, dir)
	if len(doc.Graph) != 3 {
		t.Fatalf("expected 3 graph entities, got %d", len(doc.Graph))
	}

	software := doc.Graph[0]
	if software["@id"] != softwareID || software["@type"] != TypeSoftware {
		t.Errorf("unexpected software entity %v", software)
	}
	if software["dateModified"] != "2024-03-09" {
		t.Errorf("unexpected dateModified %v", software["dateModified"])
	}

	dataset := doc.Graph[1]
	if dataset["contentUrl"] != "file:///ppi_emd.tsv" {
		t.Errorf("unexpected contentUrl %v", dataset["contentUrl"])
	}
	if dataset["format"] != "tsv" || dataset["datePublished"] != "03-09-2024" {
		t.Errorf("unexpected dataset entity %v", dataset)
	}

	computation := doc.Graph[2]
	if computation["@id"] != compID {
		t.Errorf("unexpected computation id %v", computation["@id"])
	}
	if computation["dateCreated"] != "03-09-2024" {
		t.Errorf("unexpected dateCreated %v", computation["dateCreated"])
	}
	generated, ok := computation["generated"].([]any)
	if !ok || len(generated) != 1 {
		t.Fatalf("unexpected generated refs %v", computation["generated"])
	}
	if ref := generated[0].(map[string]any); ref["@id"] != datasetID {
		t.Errorf("generated should reference the dataset, got %v", ref)
	}
}

func TestRegisterWithoutCrate(t *testing.T) {
	dir := t.TempDir()
	_, err := NewCrateStore().RegisterSoftware(context.Background(), dir, models.SoftwareMetadata{Name: "ppiembed"})
	if !errs.IsProvenance(err) {
		t.Errorf("expected provenance error, got %v", err)
	}
	if _, err := NewCrateStore().ReadInputCrate(dir); !errs.IsProvenance(err) {
		t.Errorf("expected provenance error from ReadInputCrate, got %v", err)
	}
}

func TestRegisterDatasetMissingSource(t *testing.T) {
	dir := t.TempDir()
	s := fixedStore()
	registerCrate(t, s, dir)

	_, err := s.RegisterDataset(context.Background(), dir, filepath.Join(dir, "missing.tsv"), models.DatasetMetadata{Name: "x"})
	if !errs.IsProvenance(err) {
		t.Errorf("expected provenance error, got %v", err)
	}
}

func TestRegisterPreservesForeignEntities(t *testing.T) {
	dir := t.TempDir()
	s := fixedStore()
	registerCrate(t, s, dir)

	doc := readDoc(t, dir)
	doc.Graph = append(doc.Graph, map[string]any{"@id": "ark:59852/other", "@type": "evi:Dataset", "custom": "kept"})
	if err := writeCrate(dir, doc); err != nil {
		t.Fatalf("writeCrate error: %v", err)
	}

	if _, err := s.RegisterSoftware(context.Background(), dir, models.SoftwareMetadata{Name: "ppiembed"}); err != nil {
		t.Fatalf("RegisterSoftware error: %v", err)
	}
	doc = readDoc(t, dir)
	if len(doc.Graph) != 2 || doc.Graph[0]["custom"] != "kept" {
		t.Errorf("foreign entity not preserved: %v", doc.Graph)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PPI run", "ppi-run"},
		{"  cellmaps_ppi_embedding output file ", "cellmaps-ppi-embedding-output-file"},
		{"***", ""},
		{strings.Repeat("a", 60), strings.Repeat("a", 48)},
	}
	for _, tt := range tests {
		if got := slug(tt.input); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoadProvenanceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prov.json")
	data := `{
  "name": "Example input dataset",
  "organization-name": "CM4AI",
  "project-name": "Example",
  "edgelist": {
    "name": "sample edgelist",
    "author": "Krogan Lab",
    "version": "1.0",
    "date-published": "07-31-2023",
    "description": "AP-MS Protein interactions",
    "data-format": "tsv"
  }
}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("failed to write provenance: %v", err)
	}

	pc, err := LoadProvenanceFile(path)
	if err != nil {
		t.Fatalf("LoadProvenanceFile error: %v", err)
	}
	if pc.OrganizationName != "CM4AI" || pc.ProjectName != "Example" {
		t.Errorf("unexpected context %+v", pc)
	}
	if pc.EdgeList == nil || pc.EdgeList.DataFormat != "tsv" || pc.EdgeList.Author != "Krogan Lab" {
		t.Errorf("unexpected edgelist block %+v", pc.EdgeList)
	}

	if _, err := LoadProvenanceFile(filepath.Join(dir, "missing.json")); !errs.IsConfiguration(err) {
		t.Errorf("expected configuration error for missing file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0600); err != nil {
		t.Fatalf("failed to write bad provenance: %v", err)
	}
	if _, err := LoadProvenanceFile(bad); !errs.IsConfiguration(err) {
		t.Errorf("expected configuration error for bad JSON, got %v", err)
	}
}
