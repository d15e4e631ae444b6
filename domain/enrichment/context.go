package enrichment

import "strings"

// AssayKind enumerates the supported assay types
type AssayKind string

const (
	AssayRNASeq      AssayKind = "rnaseq"
	AssayScRNASeq    AssayKind = "scrnaseq"
	AssayATACSeq     AssayKind = "atacseq"
	AssayMiRNASeq    AssayKind = "mirnaseq"
	AssayMethylation AssayKind = "methylation"
	AssayGWAS        AssayKind = "gwas"
	AssayPerturbSeq  AssayKind = "perturbseq"
	AssayUnknown     AssayKind = ""
)

// NormalizeAssay maps free-form assay labels ("bulk RNA-seq", "scRNAseq",
// "Perturb-seq") onto the canonical AssayKind values.
func NormalizeAssay(s string) AssayKind {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", "", "_", "", " ", "", "/", "").Replace(k)

	switch k {
	case "rnaseq", "bulkrnaseq", "rna":
		return AssayRNASeq
	case "scrnaseq", "singlecellrnaseq", "snrnaseq":
		return AssayScRNASeq
	case "atacseq", "scatacseq", "atac":
		return AssayATACSeq
	case "mirnaseq", "mirna", "smallrnaseq":
		return AssayMiRNASeq
	case "methylation", "dnamethylation", "wgbs", "rrbs", "methylseq":
		return AssayMethylation
	case "gwas":
		return AssayGWAS
	case "perturbseq", "cropseq":
		return AssayPerturbSeq
	}
	return AssayUnknown
}

// Context carries the experimental metadata supplied once per analysis.
// It is a read-only input to clustering and scoring.
type Context struct {
	Organism     string    `json:"organism,omitempty"`
	Tissue       string    `json:"tissue,omitempty"`
	CellType     string    `json:"cell_type,omitempty"`
	Assay        AssayKind `json:"assay,omitempty"`
	Perturbation string    `json:"perturbation,omitempty"`
	Timepoint    string    `json:"timepoint,omitempty"`
	Phenotype    string    `json:"phenotype"`
}

// TissueText returns the combined tissue + cell type text used by
// plausibility checks.
func (c Context) TissueText() string {
	return strings.ToLower(strings.TrimSpace(c.Tissue + " " + c.CellType))
}

// HasTissue reports whether any tissue or cell type information was supplied.
func (c Context) HasTissue() bool {
	return strings.TrimSpace(c.Tissue) != "" || strings.TrimSpace(c.CellType) != ""
}
