package engine

import (
	"github.com/KaramelBytes/clusterbench-cli/internal/analysis"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

// Phase names a pipeline stage boundary.
type Phase string

const (
	PhaseAnalyze   Phase = "analyze"
	PhaseEncode    Phase = "encode"
	PhaseNormalize Phase = "normalize"
	PhaseCluster   Phase = "cluster"
	PhaseElbow     Phase = "elbow"
)

// Pipeline chains analysis, encoding, normalization and clustering.
type Pipeline struct {
	SampleRows int
	Encode     dataprep.EncodeOptions
	Normalize  dataprep.NormalizeMode
	Validate   dataprep.ValidateOptions
	Options    Options
	// OnPhase, when set, is called as each phase starts.
	OnPhase func(Phase)
}

// Prepared is a dataset ready for clustering.
type Prepared struct {
	Types      analysis.ColumnTypes
	Validation *dataprep.Validation
	Encoded    *EncodeResult
	Normalized *NormalizeResult
	// Dataset is the encoded and normalized copy; Features are its feature columns.
	Dataset  *dataset.Dataset
	Features []string
	Warnings []string
}

// PipelineResult is the outcome of Pipeline.Run.
type PipelineResult struct {
	*Prepared
	Result *ClusteringResult
	// Annotated is the input dataset with the cluster column added.
	Annotated *dataset.Dataset
}

func (p *Pipeline) phase(ph Phase) {
	if p.OnPhase != nil {
		p.OnPhase(ph)
	}
	p.Options.logger().Debug("phase", "name", string(ph))
}

// Prepare infers column types, encodes categorical columns and normalizes
// numeric ones. Indicator and label columns are not rescaled.
func (p *Pipeline) Prepare(ds *dataset.Dataset) (*Prepared, error) {
	if ds.Len() == 0 {
		return nil, invalid("dataset", "no rows")
	}
	p.phase(PhaseAnalyze)
	types := analysis.AnalyzeColumns(ds, p.SampleRows)
	if len(types.Numeric)+len(types.Categorical) == 0 {
		return nil, invalid("columns", "no usable columns")
	}
	eopt, mode := p.Encode, p.Normalize
	if eopt.Mode == "" {
		eopt.Mode = dataprep.EncodeOneHot
	}
	if mode == "" {
		mode = dataprep.NormalizeZScore
	}
	vopt := p.Validate
	vopt.Encode = eopt
	prep := &Prepared{Types: types, Validation: dataprep.ValidateEncoding(ds, types.Categorical, types.Numeric, vopt)}
	prep.Warnings = append(prep.Warnings, prep.Validation.Warnings...)

	p.phase(PhaseEncode)
	enc, err := Encode(ds, types.Categorical, eopt)
	if err != nil {
		return nil, err
	}
	prep.Encoded = enc
	prep.Warnings = append(prep.Warnings, enc.Warnings...)

	p.phase(PhaseNormalize)
	norm, err := Normalize(enc.Dataset, types.Numeric, mode)
	if err != nil {
		return nil, err
	}
	prep.Normalized = norm
	prep.Warnings = append(prep.Warnings, norm.Warnings...)
	prep.Dataset = norm.Dataset
	prep.Features = append(append([]string(nil), types.Numeric...), enc.Features...)
	if len(prep.Features) == 0 {
		return nil, invalid("columns", "no usable columns after encoding")
	}
	for _, w := range prep.Warnings {
		p.Options.logger().Warn(w)
	}
	return prep, nil
}

// Run prepares ds and clusters it into k groups.
func (p *Pipeline) Run(ds *dataset.Dataset, k int) (*PipelineResult, error) {
	prep, err := p.Prepare(ds)
	if err != nil {
		return nil, err
	}
	p.phase(PhaseCluster)
	res, err := Cluster(prep.Dataset, prep.Features, k, p.Options)
	if err != nil {
		return nil, err
	}
	annotated, err := Annotate(ds, res)
	if err != nil {
		return nil, err
	}
	return &PipelineResult{Prepared: prep, Result: res, Annotated: annotated}, nil
}

// Sweep prepares ds and runs an elbow analysis over kValues.
func (p *Pipeline) Sweep(ds *dataset.Dataset, kValues []int) (*Prepared, *ElbowReport, error) {
	prep, err := p.Prepare(ds)
	if err != nil {
		return nil, nil, err
	}
	p.phase(PhaseElbow)
	rep, err := Elbow(prep.Dataset, prep.Features, kValues, p.Options)
	if err != nil {
		return nil, nil, err
	}
	return prep, rep, nil
}
