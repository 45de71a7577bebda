package manifest

import "sort"

// RunMetadata describes one batch. It only exists for batches whose
// manifest parsed, carried every required field, and sat under a date and a
// run folder.
type RunMetadata struct {
	DateFolder   string   `json:"date_folder"`
	RunFolder    string   `json:"run_folder"`
	Manifest     Manifest `json:"manifest"`
	ManifestPath string   `json:"manifest_path"`
	TotalFiles   int      `json:"total_files"`
	Files        []string `json:"files"`
}

// Label is "<date>-<run>", used in branch names.
func (m *RunMetadata) Label() string {
	return m.DateFolder + "-" + m.RunFolder
}

// Manifest is the decoded manifest document.
type Manifest struct {
	RunInfo RunInfo `json:"run_info"`
}

// RunInfo holds the run_info object. Keys without a dedicated field land in
// Extra.
type RunInfo struct {
	RunType         string                 `mapstructure:"run_type" json:"run_type"`
	Date            string                 `mapstructure:"date" json:"date"`
	FurnaceSetpoint Setpoint               `mapstructure:"furnace_setpoint" json:"furnace_setpoint"`
	Extra           map[string]interface{} `mapstructure:",remain" json:"extra,omitempty"`
}

// ExtraKeys returns the Extra keys sorted.
func (r RunInfo) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Setpoint is the furnace setpoint exactly as written in the manifest, so
// 900 stays "900" and "900.0" stays "900.0".
type Setpoint string

func (s Setpoint) String() string { return string(s) }
