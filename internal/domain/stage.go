package domain

// Stage names one phase of a generation run. Transitions are owned by the
// pipeline runner; done and error are terminal until the next submission.
type Stage string

const (
	StageIdle    Stage = "idle"
	StageContent Stage = "content"
	StageImages  Stage = "images"
	StageDone    Stage = "done"
	StageError   Stage = "error"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}
