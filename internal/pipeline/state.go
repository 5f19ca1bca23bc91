package pipeline

// State is the driver's position in a run.
type State int

const (
	StateIdle State = iota
	StateEnumeratingDirectory
	StateDispatchingJob
	StateArchiving
	StateAborted
	StateCheckpointWait
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateEnumeratingDirectory:
		return "EnumeratingDirectory"
	case StateDispatchingJob:
		return "DispatchingJob"
	case StateArchiving:
		return "Archiving"
	case StateAborted:
		return "Aborted"
	case StateCheckpointWait:
		return "CheckpointWait"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
