package app

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"biotriage/adapters/enrichr"
	"biotriage/domain/core"
	"biotriage/domain/enrichment"
	"biotriage/domain/narrative"
	programdomain "biotriage/domain/program"
	"biotriage/domain/rules"
	"biotriage/domain/triage"
	"biotriage/internal/cluster"
	"biotriage/internal/errors"
	"biotriage/internal/extract"
	"biotriage/internal/normalize"
	"biotriage/internal/report"
	"biotriage/internal/score"
	"biotriage/ports"
)

// Config holds triage service settings.
type Config struct {
	MaxConcurrent    int64
	JaccardThreshold float64
	OracleTimeout    time.Duration
}

// TriageService orchestrates one analysis end to end: parse, normalize,
// cluster, score, interpret, assemble. The deterministic pipeline is the
// source of truth; the reasoning oracle only annotates.
type TriageService struct {
	csvReader   ports.TableReaderPort
	excelReader ports.TableReaderPort
	normalizer  *normalize.Normalizer
	clusterer   *cluster.Clusterer
	scorer      *score.Scorer
	extractor   *extract.Extractor
	assembler   *report.Assembler
	ruleIndex   *rules.Index

	oracle        ports.ReasoningOraclePort // nil when no oracle configured
	archive       ports.ResultArchivePort   // nil when no archive configured
	oracleTimeout time.Duration

	// sem bounds concurrent analyses; excess requests queue here.
	sem *semaphore.Weighted
}

// NewTriageService wires the pipeline. Oracle and archive are optional.
func NewTriageService(cfg Config, index *rules.Index, oracle ports.ReasoningOraclePort, archive ports.ResultArchivePort) *TriageService {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	clusterCfg := cluster.DefaultConfig()
	if cfg.JaccardThreshold > 0 {
		clusterCfg.JaccardThreshold = cfg.JaccardThreshold
	}

	return &TriageService{
		csvReader:     enrichr.NewCSVReader(),
		excelReader:   enrichr.NewExcelReader(),
		normalizer:    normalize.New(),
		clusterer:     cluster.New(clusterCfg, index),
		scorer:        score.New(index),
		extractor:     extract.New(),
		assembler:     report.New(),
		ruleIndex:     index,
		oracle:        oracle,
		archive:       archive,
		oracleTimeout: cfg.OracleTimeout,
		sem:           semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Analyze runs a full triage over one uploaded enrichment export. Fatal
// pipeline errors (malformed input, empty dataset) abort with no result.
// Oracle failures degrade: the structured result is returned with a warning
// and no narrative.
func (s *TriageService) Analyze(ctx context.Context, file io.Reader, filename string, ectx enrichment.Context) (*triage.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "analysis queue closed")
	}
	defer s.sem.Release(1)

	analysisID := core.NewAnalysisID()
	start := time.Now()
	log.Printf("[Triage] %s: starting analysis of %s (assay=%s)", analysisID, filename, ectx.Assay)

	table, err := s.readTable(file, filename)
	if err != nil {
		return nil, err
	}

	terms, err := s.normalizer.Normalize(table)
	if err != nil {
		return nil, err
	}

	programs := s.clusterer.Cluster(terms)
	s.scorer.Score(programs, ectx)
	log.Printf("[Triage] %s: %d terms clustered into %d programs", analysisID, len(terms), len(programs))

	var warnings []string
	var narrativeText string
	var sections []narrative.Section
	var disagreements []triage.Disagreement

	if s.oracle != nil {
		narrativeText, warnings = s.interpret(ctx, ectx, programs, terms, warnings)
		if narrativeText != "" {
			sections, disagreements = s.extractor.Extract(narrativeText, programs)
		}
	}

	result := s.assembler.Assemble(analysisID, ectx, programs, terms, narrativeText, sections, disagreements, warnings)

	if s.archive != nil {
		if err := s.archive.SaveResult(ctx, result); err != nil {
			// Archiving is best-effort; the result is already complete.
			log.Printf("[Triage] %s: archive failed: %v", analysisID, err)
		}
	}

	log.Printf("[Triage] %s: done in %s (%d warnings)", analysisID, time.Since(start).Round(time.Millisecond), len(result.Warnings))
	return result, nil
}

// interpret runs the bounded oracle call and converts failures into warnings.
// The structured result never depends on it succeeding.
func (s *TriageService) interpret(ctx context.Context, ectx enrichment.Context, programs []programdomain.Program, terms []enrichment.Term, warnings []string) (string, []string) {
	timeout := s.oracleTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	octx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := ports.InterpretationRequest{
		Context:       ectx,
		Programs:      capPrograms(programs, 12),
		TopTerms:      capTerms(terms, 25),
		AdvisoryNotes: s.ruleIndex.AdvisoryNotes(ectx.Assay),
	}

	text, err := s.oracle.Interpret(octx, req)
	if err != nil {
		switch errors.GetCode(err) {
		case errors.CodeOracleTimeout:
			warnings = append(warnings, triage.WarnOracleTimeout)
		default:
			warnings = append(warnings, triage.WarnOracleUnavailable)
		}
		log.Printf("[Triage] oracle degraded: %v", err)
		return "", warnings
	}
	return text, warnings
}

func capPrograms(ps []programdomain.Program, n int) []programdomain.Program {
	if len(ps) > n {
		return ps[:n]
	}
	return ps
}

func capTerms(ts []enrichment.Term, n int) []enrichment.Term {
	ranked := make([]enrichment.Term, len(ts))
	copy(ranked, ts)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RankScore() != ranked[j].RankScore() {
			return ranked[i].RankScore() > ranked[j].RankScore()
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (s *TriageService) readTable(file io.Reader, filename string) (*ports.RawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return s.excelReader.ReadTable(file)
	default:
		return s.csvReader.ReadTable(file)
	}
}
