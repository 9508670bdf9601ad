// audit.go — обработчик /api/v1/audit-logs.
package handlers

import "net/http"

// ListAuditLogs — GET /api/v1/audit-logs?entity_type=&entity_id=.
// Доступ: view:audit-logs. Новые записи первыми.
func (h *APIHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.audit.List(r.Context(), q.Get("entity_type"), q.Get("entity_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}
