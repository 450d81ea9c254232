package scheduler

// Run lifecycle

type RunState string

const (
	StateIdle                RunState = "Idle"
	StateFetchingMetadata    RunState = "FetchingMetadata"
	StateDiscoveringChapters RunState = "DiscoveringChapters"
	StateDownloadingChapters RunState = "DownloadingChapters"
	StateAssembling          RunState = "Assembling"
	StateWriting             RunState = "Writing"
	StateDone                RunState = "Done"
	StateFailed              RunState = "Failed"
)

// allowedTransitions is the closed transition table of a run.
// DownloadingChapters cannot reach Failed: chapter failures degrade to
// placeholders instead of aborting the run.
var allowedTransitions = map[RunState][]RunState{
	StateIdle:                {StateFetchingMetadata},
	StateFetchingMetadata:    {StateDiscoveringChapters, StateFailed},
	StateDiscoveringChapters: {StateDownloadingChapters, StateFailed},
	StateDownloadingChapters: {StateAssembling},
	StateAssembling:          {StateWriting},
	StateWriting:             {StateDone, StateFailed},
	StateDone:                {},
	StateFailed:              {},
}

func transitionAllowed(from, to RunState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RunSummary is the terminal outcome of a completed run.
type RunSummary struct {
	outputPath     string
	totalChapters  int
	failedChapters int
}

func NewRunSummary(outputPath string, totalChapters, failedChapters int) RunSummary {
	return RunSummary{
		outputPath:     outputPath,
		totalChapters:  totalChapters,
		failedChapters: failedChapters,
	}
}

func (r *RunSummary) OutputPath() string {
	return r.outputPath
}

func (r *RunSummary) TotalChapters() int {
	return r.totalChapters
}

func (r *RunSummary) FailedChapters() int {
	return r.failedChapters
}
