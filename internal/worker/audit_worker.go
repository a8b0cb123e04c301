package worker

import (
	"github.com/Abhishekkatale/CRM-Musitech/internal/service"
)

// StartAuditWorker wires the audit service into the event stream and
// starts its queue drainer.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
	auditService.Start()
}
