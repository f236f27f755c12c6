package appointment

import (
	"github.com/TailwagServices/clinic-scheduler/internal/audit"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
)

// Fire-and-forget collaborators; the concrete dispatchers satisfy these.

type Auditor interface {
	Dispatch(ev audit.Event)
}

type Notifier interface {
	Dispatch(ev notify.Event)
}
