package rules

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"biotriage/domain/rules"
	"biotriage/internal/errors"
)

// Load builds the rule index from the built-in catalogue, optionally extended
// by a YAML file. File rules are appended to the defaults; a file confounder
// or program sharing an id/tag with a built-in replaces it, so deployments
// can retune severities without forking the catalogue.
//
// Any load failure is fatal to the caller: the engine must not serve requests
// with a partial rule base.
func Load(path string) (*rules.Index, error) {
	base := rules.DefaultBase()

	if path != "" {
		extra, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		merge(base, extra)
		log.Printf("[RuleLoader] Merged rule file %s: %d programs, %d confounders, %d tissue priors total",
			path, len(base.Programs), len(base.Confounders), len(base.Tissues))
	}

	ix, err := rules.NewIndex(base)
	if err != nil {
		return nil, errors.RuleBaseLoad("rule base failed validation", err)
	}
	return ix, nil
}

func loadFile(path string) (*rules.Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.RuleBaseLoad("could not read rule file", err)
	}

	var base rules.Base
	if err := yaml.Unmarshal(raw, &base); err != nil {
		return nil, errors.RuleBaseLoad("could not parse rule file YAML", err)
	}
	return &base, nil
}

func merge(dst, src *rules.Base) {
	for _, p := range src.Programs {
		if i := programIndex(dst.Programs, p.Tag); i >= 0 {
			dst.Programs[i] = p
			continue
		}
		dst.Programs = append(dst.Programs, p)
	}
	for _, c := range src.Confounders {
		if i := confounderIndex(dst.Confounders, c.ID); i >= 0 {
			dst.Confounders[i] = c
			continue
		}
		dst.Confounders = append(dst.Confounders, c)
	}
	for _, t := range src.Tissues {
		if i := tissueIndex(dst.Tissues, t.ID); i >= 0 {
			dst.Tissues[i] = t
			continue
		}
		dst.Tissues = append(dst.Tissues, t)
	}
	dst.GrowthVocabulary = append(dst.GrowthVocabulary, src.GrowthVocabulary...)
}

func programIndex(rs []rules.ProgramRule, tag string) int {
	for i := range rs {
		if rs[i].Tag == tag {
			return i
		}
	}
	return -1
}

func confounderIndex(rs []rules.ConfounderRule, id string) int {
	for i := range rs {
		if rs[i].ID == id {
			return i
		}
	}
	return -1
}

func tissueIndex(rs []rules.TissueRule, id string) int {
	for i := range rs {
		if rs[i].ID == id {
			return i
		}
	}
	return -1
}
