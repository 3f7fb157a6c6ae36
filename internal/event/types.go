package event

// Type represents the type of event.
type Type string

const (
	SkillLoaded       Type = "skill.loaded"
	SkillRemoved      Type = "skill.removed"
	SchemaDiscovered  Type = "schema.discovered"
	ExecutionStarted  Type = "execution.started"
	ExecutionFinished Type = "execution.finished"
	OutputProcessed   Type = "output.processed"
)

// Event represents an event to be published.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// SkillLoadedData is the payload for SkillLoaded events.
type SkillLoadedData struct {
	SkillID   string `json:"skillId"`
	Directory string `json:"directory"`
}

// SchemaDiscoveredData is the payload for SchemaDiscovered events.
type SchemaDiscoveredData struct {
	EntryCommand string   `json:"entryCommand"`
	Commands     []string `json:"commands"`
}

// ExecutionStartedData is the payload for ExecutionStarted events.
type ExecutionStartedData struct {
	ExecutionID string `json:"executionId"`
	SkillID     string `json:"skillId"`
	Command     string `json:"command"`
}

// ExecutionFinishedData is the payload for ExecutionFinished events.
type ExecutionFinishedData struct {
	ExecutionID string   `json:"executionId"`
	SkillID     string   `json:"skillId"`
	Command     string   `json:"command"`
	Success     bool     `json:"success"`
	ReturnCode  int      `json:"returnCode"`
	OutputFiles []string `json:"outputFiles"`
}

// OutputProcessedData is the payload for OutputProcessed events.
type OutputProcessedData struct {
	ExecutionID string `json:"executionId"`
	Filename    string `json:"filename"`
	URL         string `json:"url,omitempty"`
}
