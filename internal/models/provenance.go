// ABOUTME: Provenance metadata models for RO-Crate and FAIRSCAPE registration.
// ABOUTME: Covers run context, software, dataset, and computation descriptions.
package models

// ProvenanceContext describes the run when the input directory carries no RO-Crate.
// It is loaded from the JSON file given with --provenance.
type ProvenanceContext struct {
	Name             string           `json:"name"`
	OrganizationName string           `json:"organization-name"`
	ProjectName      string           `json:"project-name"`
	Description      string           `json:"description,omitempty"`
	Keywords         []string         `json:"keywords,omitempty"`
	EdgeList         *DatasetMetadata `json:"edgelist,omitempty"`
}

// CrateMetadata describes the RO-Crate created for an output directory.
type CrateMetadata struct {
	Name             string
	OrganizationName string
	ProjectName      string
	Description      string
	Keywords         []string
}

// SoftwareMetadata describes this tool when registered as software.
type SoftwareMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Version     string   `json:"version"`
	FileFormat  string   `json:"file-format"`
	URL         string   `json:"url"`
	Keywords    []string `json:"keywords,omitempty"`
}

// DatasetMetadata describes a data file registered as a dataset.
type DatasetMetadata struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	DataFormat    string   `json:"data-format"`
	Author        string   `json:"author"`
	Version       string   `json:"version"`
	DatePublished string   `json:"date-published"`
	Keywords      []string `json:"keywords,omitempty"`
}

// ComputationMetadata links the software, input datasets, and generated outputs of a run.
type ComputationMetadata struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	RunBy        string   `json:"run-by"`
	Command      string   `json:"command"`
	DateCreated  string   `json:"date-created"`
	UsedSoftware []string `json:"used-software"`
	UsedDataset  []string `json:"used-dataset"`
	Generated    []string `json:"generated"`
	Keywords     []string `json:"keywords,omitempty"`
}
