package rules

import "biotriage/domain/enrichment"

// DefaultBase returns the built-in rule catalogue. The catalogue grows over
// time; severity weights are heuristics tuned against known-confounded
// datasets, not fitted parameters.
func DefaultBase() *Base {
	return &Base{
		Programs:         defaultPrograms(),
		Confounders:      defaultConfounders(),
		Tissues:          defaultTissueRules(),
		GrowthVocabulary: defaultGrowthVocabulary(),
	}
}

func defaultPrograms() []ProgramRule {
	return []ProgramRule{
		{
			Tag:          "ECM_FIBROSIS",
			TermKeywords: []string{"extracellular matrix", "collagen", "ecm", "integrin", "focal adhesion", "tgf", "wound healing", "myofibroblast"},
			GenePatterns: []string{`^COL\d+`, `^FN1$`, `^POSTN$`, `^SPARC$`, `^TGFB\d`, `^SMAD\d`, `^ITGA`, `^ITGB`, `^MMP\d`, `^TIMP\d`},
		},
		{
			Tag:          "INNATE_IFN_ANTIVIRAL",
			TermKeywords: []string{"interferon", "ifn", "antiviral", "defense response to virus", "jak-stat", "tlr", "rig-i", "pattern recognition"},
			GenePatterns: []string{`^IFIT`, `^ISG\d+`, `^OAS\d`, `^MX\d`, `^STAT\d`, `^IRF\d`, `^DDX\d+`, `^TLR\d`, `^CXCL\d+`},
		},
		{
			Tag:          "ADAPTIVE_T_CELL",
			TermKeywords: []string{"t cell", "t-cell", "cd3", "antigen presentation", "mhc", "cytotoxic", "pd-1", "checkpoint", "exhaustion"},
			GenePatterns: []string{`^CD3`, `^TRAC$`, `^TRBC`, `^GZMB$`, `^PRF1$`, `^LAG3$`, `^PDCD1$`, `^CTLA4$`, `^HLA-`, `^B2M$`},
		},
		{
			Tag:          "DDR_P53_APOPTOSIS",
			TermKeywords: []string{"dna damage", "p53", "apoptosis", "repair", "homologous recombination", "nhej", "senescence"},
			GenePatterns: []string{`^TP53$`, `^CDKN1A$`, `^GADD45`, `^BAX$`, `^BBC3$`, `^ATM$`, `^ATR$`, `^BRCA\d`, `^RAD\d`, `^CHEK\d`},
		},
		{
			Tag:          "UPR_PROTEOSTASIS",
			TermKeywords: []string{"unfolded protein", "upr", "er stress", "endoplasmic reticulum", "protein folding", "proteasome", "heat shock"},
			GenePatterns: []string{`^HSPA`, `^HSPB`, `^DNAJ`, `^XBP1$`, `^ATF4$`, `^DDIT3$`, `^HERPUD`, `^PSM`, `^UBB$`},
		},
		{
			Tag:          "MITO_OXPHOS",
			TermKeywords: []string{"mitochond", "oxidative phosphorylation", "oxphos", "respiratory chain", "tca", "electron transport"},
			GenePatterns: []string{`^MT-`, `^NDUF`, `^COX\d`, `^ATP5`, `^SDH`, `^UQCR`, `^CS$`, `^IDH\d`, `^PDHA`},
		},
		{
			Tag:          "INFLAMMATION_NFKB",
			TermKeywords: []string{"nf-kb", "nfkb", "tnf", "il-1", "inflammatory", "cytokine", "chemokine", "toll-like receptor"},
			GenePatterns: []string{`^NFKB`, `^RELA$`, `^TNF$`, `^IL1`, `^CXCL`, `^CCL`, `^ICAM1$`, `^SELE$`, `^PTGS2$`},
		},
		{
			Tag:          "ANGIO_HYPOXIA",
			TermKeywords: []string{"hypoxia", "hif", "angiogenesis", "vegf", "vascular", "endothelial"},
			GenePatterns: []string{`^HIF1A$`, `^VEGFA$`, `^KDR$`, `^FLT1$`, `^ANGPT`, `^EGLN`, `^CA9$`},
		},
		{
			Tag:          "MTOR_GROWTH",
			TermKeywords: []string{"mtor", "pi3k", "akt", "growth factor", "insulin signaling", "anabolic"},
			GenePatterns: []string{`^MTOR$`, `^RPTOR$`, `^RICTOR$`, `^AKT\d`, `^PIK3C`, `^EIF4E`, `^RPS6K`},
			GrowthAxis:   true,
		},
		{
			Tag:          "CELL_CYCLE_PROLIFERATION",
			TermKeywords: []string{"cell cycle", "mitotic", "g2m", "g1s", "dna replication", "m phase", "e2f", "checkpoint"},
			GenePatterns: []string{`^MKI67$`, `^TOP2A$`, `^CCN`, `^CDK`, `^PCNA$`, `^MCM\d`, `^UBE2C$`},
			GrowthAxis:   true,
		},
		{
			Tag:          "RIBOSOME_TRANSLATION",
			TermKeywords: []string{"ribosome", "translation", "ribosomal", "rrna", "srp"},
			GenePatterns: []string{`^RPL`, `^RPS`, `^EEF`, `^EIF`},
			GrowthAxis:   true,
		},
	}
}

func defaultConfounders() []ConfounderRule {
	return []ConfounderRule{
		{
			ID:           "mito-qc",
			Assays:       []enrichment.AssayKind{enrichment.AssayRNASeq, enrichment.AssayScRNASeq},
			TermPatterns: []string{"mitochond", "oxidative phosphorylation", "oxphos", "respiratory chain", "electron transport"},
			GenePatterns: []string{`^MT-`},
			Category:     CategoryComposition,
			Severity:     0.5,
			Note:         "Mitochondrial enrichment frequently tracks library quality and dying cells rather than biology; check per-sample mito fraction before interpreting.",
		},
		{
			ID:           "ribosome-translation",
			TermPatterns: []string{"ribosome", "ribosomal", "translation", "rrna"},
			GenePatterns: []string{`^RPL`, `^RPS`, `^EEF\d`, `^EIF\d`},
			Category:     CategoryReactiveGrowth,
			Severity:     0.25,
			Note:         "Ribosome/translation programs usually reflect growth rate or library composition; treat as downstream unless the phenotype is about growth or protein synthesis.",
		},
		{
			ID:           "cell-cycle",
			TermPatterns: []string{"cell cycle", "mitotic", "g2m", "g1s", "dna replication", "e2f"},
			GenePatterns: []string{`^MKI67$`, `^TOP2A$`, `^CCNB`, `^CDK1$`, `^PCNA$`, `^MCM\d`, `^UBE2C$`},
			Category:     CategoryReactiveGrowth,
			Severity:     0.3,
			Note:         "Cell-cycle enrichment is the most common confounder: real when the phenotype is proliferation, growth, tumor or regeneration, reactive otherwise.",
		},
		{
			ID:           "dissociation-stress",
			Assays:       []enrichment.AssayKind{enrichment.AssayScRNASeq, enrichment.AssayPerturbSeq},
			TermPatterns: []string{"immediate early", "response to stress", "heat shock"},
			GenePatterns: []string{`^FOS$`, `^FOSB$`, `^JUN$`, `^JUNB$`, `^EGR1$`, `^HSPA1`, `^DUSP1$`},
			Category:     CategoryTechnicalArtifact,
			Severity:     0.45,
			Note:         "FOS/JUN/EGR1-driven stress signatures in single-cell data are usually induced by tissue dissociation, not the perturbation.",
		},
		{
			ID:           "ambient-composition",
			Assays:       []enrichment.AssayKind{enrichment.AssayScRNASeq},
			TermPatterns: []string{"hemoglobin", "erythrocyte", "platelet"},
			GenePatterns: []string{`^HB[AB]`, `^PPBP$`, `^PF4$`},
			Category:     CategoryComposition,
			Severity:     0.55,
			Note:         "Hemoglobin/platelet programs in scRNA-seq usually indicate ambient RNA contamination or doublets.",
		},
		{
			ID:           "ifn-batch",
			Assays:       []enrichment.AssayKind{enrichment.AssayRNASeq, enrichment.AssayScRNASeq, enrichment.AssayPerturbSeq},
			TermPatterns: []string{"interferon alpha", "interferon beta", "type i interferon"},
			GenePatterns: []string{`^IFIT\d`, `^ISG15$`, `^OAS\d`, `^MX\d`},
			Category:     CategoryStressResponse,
			Severity:     0.2,
			Note:         "Type I interferon programs dominate many datasets; confirm whether IFN induction is expected from the design versus mycoplasma/contamination or batch.",
		},
		{
			ID:           "stress-upr",
			TermPatterns: []string{"unfolded protein", "er stress", "heat shock", "proteasome"},
			GenePatterns: []string{`^HSPA`, `^DNAJ`, `^DDIT3$`, `^XBP1$`},
			Category:     CategoryStressResponse,
			Severity:     0.2,
			Note:         "Proteostasis/UPR signatures can be real biology or a handling and viability artifact; inspect viability metrics.",
		},
		{
			ID:           "atac-translation",
			Assays:       []enrichment.AssayKind{enrichment.AssayATACSeq},
			TermPatterns: []string{"ribosome", "translation"},
			Category:     CategoryTechnicalArtifact,
			Severity:     0.35,
			Note:         "Translation terms from ATAC-seq peak annotation rarely reflect regulatory biology; promoter density inflates housekeeping gene sets.",
		},
		{
			ID:           "gwas-ld-cluster",
			Assays:       []enrichment.AssayKind{enrichment.AssayGWAS},
			TermPatterns: []string{"mhc", "hla", "antigen presentation"},
			GenePatterns: []string{`^HLA-`},
			Category:     CategoryTechnicalArtifact,
			Severity:     0.4,
			Note:         "MHC-region hits in GWAS enrichment are frequently a single extended LD block counted as many genes; verify independent signals.",
		},
		{
			ID:           "mirna-target-bias",
			Assays:       []enrichment.AssayKind{enrichment.AssayMiRNASeq},
			TermPatterns: []string{"regulation of transcription", "metabolic process", "cellular process"},
			Category:     CategoryTechnicalArtifact,
			Severity:     0.3,
			Note:         "Broad GO categories from predicted miRNA targets carry heavy annotation bias; prefer validated-target gene sets.",
		},
		{
			ID:           "methylation-age",
			Assays:       []enrichment.AssayKind{enrichment.AssayMethylation},
			TermPatterns: []string{"developmental", "morphogenesis", "pattern specification", "homeobox"},
			GenePatterns: []string{`^HOX[A-D]`, `^PAX\d`},
			Category:     CategoryDevelopmental,
			Severity:     0.3,
			Note:         "Developmental/homeobox methylation signals commonly track age and cell composition rather than the studied exposure.",
		},
	}
}

func defaultTissueRules() []TissueRule {
	return []TissueRule{
		{
			ID:             "neural-out-of-context",
			TermKeywords:   []string{"synap", "neuron", "axon", "dendrite", "dopamine", "glutamate", "neurotransmitter"},
			TissueKeywords: []string{"brain", "neural", "neuron", "cortex", "hippocampus", "astro", "microglia", "retina", "spinal"},
			Penalty:        0.6,
		},
		{
			ID:             "muscle-out-of-context",
			TermKeywords:   []string{"muscle contraction", "sarcomere", "myofibril", "actomyosin"},
			TissueKeywords: []string{"muscle", "cardio", "heart", "myocyte", "myoblast"},
			Penalty:        0.5,
		},
		{
			ID:             "bcell-out-of-context",
			TermKeywords:   []string{"b cell", "b-cell", "immunoglobulin", "bcr signaling"},
			TissueKeywords: []string{"b cell", "lymph", "spleen", "pbmc", "blood", "immune", "bone marrow", "tonsil"},
			Penalty:        0.4,
		},
		{
			ID:             "keratinization-out-of-context",
			TermKeywords:   []string{"keratinization", "cornification", "epidermis development"},
			TissueKeywords: []string{"skin", "epiderm", "keratinocyte", "esophag"},
			Penalty:        0.4,
		},
	}
}

func defaultGrowthVocabulary() []string {
	return []string{
		"prolifer", "growth", "tumor", "tumour", "cancer", "regenerat",
		"cell cycle", "expansion", "hyperplas", "clonal", "mitogen",
	}
}
