package brain

// SurfacedMemory is one memory returned by the memory service.
type SurfacedMemory struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	MemoryType string  `json:"memory_type"`
	Score      float64 `json:"score"`
}

// ProactiveContextRequest is the activation request body.
type ProactiveContextRequest struct {
	UserID           string `json:"user_id"`
	Context          string `json:"context"`
	MaxResults       int    `json:"max_results"`
	AutoIngest       bool   `json:"auto_ingest"`
	PreviousResponse string `json:"previous_response,omitempty"`
	UserFollowup     string `json:"user_followup,omitempty"`
}

// FeedbackProcessed summarizes feedback handling done by the memory
// service during activation.
type FeedbackProcessed struct {
	MemoriesEvaluated int      `json:"memories_evaluated"`
	Reinforced        []string `json:"reinforced"`
	Weakened          []string `json:"weakened"`
}

// ProactiveContextResponse is the activation response body.
type ProactiveContextResponse struct {
	Memories          []SurfacedMemory   `json:"memories"`
	FeedbackProcessed *FeedbackProcessed `json:"feedback_processed,omitempty"`
}

// RememberRequest is the encoding request body.
type RememberRequest struct {
	UserID           string   `json:"user_id"`
	Content          string   `json:"content"`
	Tags             []string `json:"tags,omitempty"`
	MemoryType       string   `json:"memory_type,omitempty"`
	EmotionalValence *float64 `json:"emotional_valence,omitempty"`
	AgentID          string   `json:"agent_id,omitempty"`
	ParentAgentID    string   `json:"parent_agent_id,omitempty"`
	RunID            string   `json:"run_id,omitempty"`
}

// RememberResponse is the encoding response body.
type RememberResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// ReinforceRequest is the reinforcement request body.
type ReinforceRequest struct {
	UserID  string   `json:"user_id"`
	IDs     []string `json:"ids"`
	Outcome string   `json:"outcome"`
}

// ReinforceResponse is the reinforcement response body.
type ReinforceResponse struct {
	MemoriesProcessed int `json:"memories_processed"`
}
