package application

import "expvar"

// Workflow outcome counters, published under /debug/vars as "auth_workflows".
var workflowStats = expvar.NewMap("auth_workflows")

const (
	statRegisterCreated    = "register_created"
	statRegisterDuplicate  = "register_duplicate"
	statLoginIssued        = "login_issued"
	statLoginUnknownEmail  = "login_unknown_email"
	statLoginBadPassword   = "login_bad_password"
	statResetDone          = "reset_done"
	statResetRejected      = "reset_rejected"
	statProfileUpdated     = "profile_updated"
	statRejectedInput      = "rejected_input"
	statUnexpected         = "unexpected"
	statNotificationFailed = "notification_failed"
)

func count(stat string) { workflowStats.Add(stat, 1) }

// Stat returns the current value of a workflow counter.
func Stat(name string) int64 {
	if v, ok := workflowStats.Get(name).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}
