// ABOUTME: Local RO-Crate store that keeps provenance in ro-crate-metadata.json.
// ABOUTME: Assigns ARK-style identifiers and rewrites the crate atomically on every registration.
package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/logger"
	"github.com/2389-research/ppiembed/internal/models"
)

// CrateFile is the RO-Crate metadata file name inside a crate directory.
const CrateFile = "ro-crate-metadata.json"

// ArkPrefix prefixes every identifier the store assigns.
const ArkPrefix = "ark:59852/"

// Entity types written to the crate graph.
const (
	TypeSoftware    = "evi:Software"
	TypeDataset     = "evi:Dataset"
	TypeComputation = "evi:Computation"
)

var crateContext = map[string]string{
	"@vocab": "https://schema.org/",
	"evi":    "https://w3id.org/EVI#",
}

// crateDocument is the on-disk RO-Crate. Graph entries stay untyped so entities
// written by other tools survive a rewrite.
type crateDocument struct {
	Context     map[string]string `json:"@context"`
	ID          string            `json:"@id"`
	Type        string            `json:"@type"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Keywords    []string          `json:"keywords"`
	IsPartOf    []partOf          `json:"isPartOf"`
	Graph       []map[string]any  `json:"@graph"`
}

type partOf struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// CrateStore registers provenance into ro-crate-metadata.json files on disk.
type CrateStore struct {
	mu  sync.Mutex
	now func() time.Time
}

// NewCrateStore creates a crate store.
func NewCrateStore() *CrateStore {
	return &CrateStore{now: time.Now}
}

// CratePath returns the crate metadata location inside dir.
func CratePath(dir string) string {
	return filepath.Join(dir, CrateFile)
}

// ReadInputCrate returns the name, organization, and project recorded in dir's crate.
func (s *CrateStore) ReadInputCrate(dir string) (*InputCrate, error) {
	doc, err := readCrate(dir)
	if err != nil {
		return nil, err
	}
	crate := &InputCrate{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Keywords:    doc.Keywords,
	}
	for _, p := range doc.IsPartOf {
		switch p.Type {
		case "Organization":
			crate.OrganizationName = p.Name
		case "Project":
			crate.ProjectName = p.Name
		}
	}
	return crate, nil
}

// RegisterROCrate creates a fresh crate in dir, replacing any existing one.
func (s *CrateStore) RegisterROCrate(ctx context.Context, dir string, meta models.CrateMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireFields("rocrate", map[string]string{
		"name":              meta.Name,
		"organization-name": meta.OrganizationName,
		"project-name":      meta.ProjectName,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keywords := meta.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	doc := &crateDocument{
		Context:     crateContext,
		ID:          newID("rocrate", meta.Name),
		Type:        "Dataset",
		Name:        meta.Name,
		Description: meta.Description,
		Keywords:    keywords,
		IsPartOf: []partOf{
			{Type: "Organization", Name: meta.OrganizationName},
			{Type: "Project", Name: meta.ProjectName},
		},
		Graph: []map[string]any{},
	}
	logger.Debug("registering rocrate", "dir", dir, "id", doc.ID)
	return writeCrate(dir, doc)
}

// RegisterSoftware adds a software entity to dir's crate.
func (s *CrateStore) RegisterSoftware(ctx context.Context, dir string, meta models.SoftwareMetadata) (string, error) {
	if err := requireFields("software", map[string]string{"name": meta.Name}); err != nil {
		return "", err
	}
	entity := map[string]any{
		"@type":        TypeSoftware,
		"name":         meta.Name,
		"description":  meta.Description,
		"author":       meta.Author,
		"version":      meta.Version,
		"format":       meta.FileFormat,
		"url":          meta.URL,
		"keywords":     nonNil(meta.Keywords),
		"dateModified": s.now().Format("2006-01-02"),
	}
	return s.addEntity(ctx, dir, "software", meta.Name, entity)
}

// RegisterDataset adds a dataset entity for sourceFile to dir's crate.
func (s *CrateStore) RegisterDataset(ctx context.Context, dir, sourceFile string, meta models.DatasetMetadata) (string, error) {
	if err := requireFields("dataset", map[string]string{"name": meta.Name}); err != nil {
		return "", err
	}
	info, err := os.Stat(sourceFile)
	if err != nil || info.IsDir() {
		return "", errs.Provenancef("dataset source %s is not a file", sourceFile)
	}
	entity := map[string]any{
		"@type":         TypeDataset,
		"name":          meta.Name,
		"description":   meta.Description,
		"author":        meta.Author,
		"version":       meta.Version,
		"datePublished": meta.DatePublished,
		"format":        meta.DataFormat,
		"contentUrl":    contentURL(dir, sourceFile),
		"contentSize":   info.Size(),
		"keywords":      nonNil(meta.Keywords),
	}
	return s.addEntity(ctx, dir, "dataset", meta.Name, entity)
}

// RegisterComputation adds a computation entity linking software, inputs, and outputs.
func (s *CrateStore) RegisterComputation(ctx context.Context, dir string, meta models.ComputationMetadata) (string, error) {
	if err := requireFields("computation", map[string]string{"name": meta.Name}); err != nil {
		return "", err
	}
	dateCreated := meta.DateCreated
	if dateCreated == "" {
		dateCreated = s.now().Format("01-02-2006")
	}
	entity := map[string]any{
		"@type":        TypeComputation,
		"name":         meta.Name,
		"description":  meta.Description,
		"runBy":        meta.RunBy,
		"command":      meta.Command,
		"dateCreated":  dateCreated,
		"usedSoftware": refs(meta.UsedSoftware),
		"usedDataset":  refs(meta.UsedDataset),
		"generated":    refs(meta.Generated),
		"keywords":     nonNil(meta.Keywords),
	}
	return s.addEntity(ctx, dir, "computation", meta.Name, entity)
}

func (s *CrateStore) addEntity(ctx context.Context, dir, kind, name string, entity map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readCrate(dir)
	if err != nil {
		return "", err
	}
	id := newID(kind, name)
	entity["@id"] = id
	doc.Graph = append(doc.Graph, entity)
	logger.Debug("registering "+kind, "dir", dir, "id", id)
	if err := writeCrate(dir, doc); err != nil {
		return "", err
	}
	return id, nil
}

func readCrate(dir string) (*crateDocument, error) {
	path := CratePath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Provenancef("no RO-Crate found in %s", dir)
		}
		return nil, errs.Provenancef("failed to read %s: %v", path, err)
	}
	var doc crateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Provenancef("invalid RO-Crate %s: %v", path, err)
	}
	if doc.ID == "" {
		return nil, errs.Provenancef("RO-Crate %s has no @id", path)
	}
	return &doc, nil
}

func writeCrate(dir string, doc *crateDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal RO-Crate: %w", err)
	}
	if err := renameio.WriteFile(CratePath(dir), append(data, '\n'), 0644); err != nil {
		return errs.Provenancef("failed to write RO-Crate in %s: %v", dir, err)
	}
	return nil
}

func requireFields(kind string, fields map[string]string) error {
	for _, key := range []string{"name", "organization-name", "project-name"} {
		value, ok := fields[key]
		if ok && strings.TrimSpace(value) == "" {
			return errs.Provenancef("Key missing in provenance: %s %s", kind, key)
		}
	}
	return nil
}

func newID(kind, name string) string {
	return ArkPrefix + kind + "-" + slug(name) + "-" + uuid.New().String()
}

// slug lowercases name and collapses every run of non-alphanumerics to a dash.
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 48 {
		out = strings.TrimSuffix(out[:48], "-")
	}
	return out
}

// contentURL is relative to the crate when the file lives inside it.
func contentURL(dir, sourceFile string) string {
	absDir, errDir := filepath.Abs(dir)
	absFile, errFile := filepath.Abs(sourceFile)
	if errDir == nil && errFile == nil {
		if rel, err := filepath.Rel(absDir, absFile); err == nil && !strings.HasPrefix(rel, "..") {
			return "file:///" + filepath.ToSlash(rel)
		}
		return "file://" + filepath.ToSlash(absFile)
	}
	return "file://" + filepath.ToSlash(sourceFile)
}

func refs(ids []string) []map[string]string {
	out := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]string{"@id": id})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
