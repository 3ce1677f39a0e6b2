package model

// GenerationRequest is a single text-generation call. It is built per call
// and never mutated after construction.
type GenerationRequest struct {
	Prompt          string  `json:"prompt"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	ModelID         string  `json:"model_id"`
}

// GenerationResult holds the answer text of a successful generation call.
// Failures are reported through the accompanying *Error instead.
type GenerationResult struct {
	Text         string `json:"text"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Attempts     int    `json:"attempts"`
	InputTokens  int64  `json:"input_tokens,omitempty"`
	OutputTokens int64  `json:"output_tokens,omitempty"`
}

// PublishResult describes a completed artifact upsert.
type PublishResult struct {
	Success  bool   `json:"success"`
	LiveURL  string `json:"live_url"`
	Revision string `json:"revision,omitempty"`
	Created  bool   `json:"created"`
	Error    string `json:"error,omitempty"`
}

// ChannelMessage holds every rendering of an outreach message. All variants
// are always populated regardless of the channel chosen.
type ChannelMessage struct {
	Subject   string `json:"subject"`
	RichBody  string `json:"rich_body"`
	PlainBody string `json:"plain_body"`
	ShortBody string `json:"short_body"`
}

// OutreachOutcome is the uniform result of a dispatch attempt.
type OutreachOutcome struct {
	Sent    bool    `json:"sent"`
	Channel Channel `json:"channel"`
	Error   string  `json:"error,omitempty"`
}
