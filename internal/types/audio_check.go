package types

// AudioCheck is the structured answer from the guard's boolean check
// oracle: whether the submitted inputs include an audio file, plus the
// oracle's rationale.
type AudioCheck struct {
	HasAudio  bool   `json:"has_audio"`
	Reasoning string `json:"reasoning"`
}
