package jobs

type JobType string

const (
	// share summary email delivery for one ShareRecord
	JobShareNotification JobType = "share.notification"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobShareNotification:
		return true
	default:
		return false
	}
}
