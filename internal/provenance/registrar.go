// ABOUTME: Registrar interface for recording run provenance as RO-Crate entities.
// ABOUTME: Also loads the explicit provenance context file given on the command line.
package provenance

import (
	"context"
	"encoding/json"
	"os"

	"github.com/2389-research/ppiembed/internal/errs"
	"github.com/2389-research/ppiembed/internal/models"
)

// InputCrate summarizes the RO-Crate found in a directory.
type InputCrate struct {
	ID               string
	Name             string
	OrganizationName string
	ProjectName      string
	Description      string
	Keywords         []string
}

// Registrar records provenance for a run. Each Register method returns the
// identifier of the entity it created.
type Registrar interface {
	// ReadInputCrate returns the crate in dir, or a ProvenanceError when there is none.
	ReadInputCrate(dir string) (*InputCrate, error)
	RegisterROCrate(ctx context.Context, dir string, meta models.CrateMetadata) error
	RegisterSoftware(ctx context.Context, dir string, meta models.SoftwareMetadata) (string, error)
	RegisterDataset(ctx context.Context, dir, sourceFile string, meta models.DatasetMetadata) (string, error)
	RegisterComputation(ctx context.Context, dir string, meta models.ComputationMetadata) (string, error)
}

// LoadProvenanceFile reads an explicit provenance context from a JSON file.
func LoadProvenanceFile(path string) (*models.ProvenanceContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configf("%s is not a file", path)
	}
	var pc models.ProvenanceContext
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, errs.Configf("invalid provenance file %s: %v", path, err)
	}
	return &pc, nil
}
