package pipeline

type Stage int

const (
	StageStart Stage = iota
	StageNormalized
	StageClassified
	StageRouted
	StageResponded
	StageEnd
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageNormalized:
		return "normalized"
	case StageClassified:
		return "classified"
	case StageRouted:
		return "routed"
	case StageResponded:
		return "responded"
	case StageEnd:
		return "end"
	default:
		return "unknown"
	}
}
