package domain

import "time"

// EngineReport holds the cumulative counters of one engine.
type EngineReport struct {
	Name    string `json:"name"`
	Success int64  `json:"success"`
	Reject  int64  `json:"reject"`
	Failed  int64  `json:"failed"`
	Best    int64  `json:"best"`
	Calls   int64  `json:"calls"`
}

// Summary is the end-of-run report of a sampler.
type Summary struct {
	RunID        string         `json:"run_id"`
	Model        string         `json:"model"`
	Distribution string         `json:"distribution"`
	Ensemble     int            `json:"ensemble"`
	Discard      int            `json:"discard"`
	Iterations   int            `json:"iterations"`
	Samples      int            `json:"samples"`
	LogZ         float64        `json:"log_z"`
	Information  float64        `json:"information"`
	Evidence     float64        `json:"evidence"`
	Precision    float64        `json:"precision"`
	Parameters   []float64      `json:"parameters"`
	StdDevs      []float64      `json:"std_devs"`
	HyperPars    []float64      `json:"hyper_parameters,omitempty"`
	StdDevHyper  []float64      `json:"std_dev_hyper_parameters,omitempty"`
	Engines      []EngineReport `json:"engines"`
	LogLCalls    int64          `json:"logl_calls"`
	PartialCalls int64          `json:"partial_calls"`
	Duration     time.Duration  `json:"duration"`
}
