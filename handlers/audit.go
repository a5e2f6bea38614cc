package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness-step-by-step/client-form/utils"
)

const auditPageSize = 50

// AuditHandler searches indexed submission events.
type AuditHandler struct {
	es    utils.ElasticsearchClient
	index string
}

// NewAuditHandler accepts a nil client; searches then answer 503.
func NewAuditHandler(es utils.ElasticsearchClient, index string) *AuditHandler {
	return &AuditHandler{es: es, index: index}
}

func (h *AuditHandler) Register(r gin.IRouter) {
	r.GET("/api/audit/submissions", h.SearchSubmissions)
}

func (h *AuditHandler) SearchSubmissions(c *gin.Context) {
	if h.es == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "submission audit is not configured"})
		return
	}

	hits, err := h.es.Search(c.Request.Context(), h.index, submissionQuery(c.Query("q")))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "submission search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": hits})
}

func submissionQuery(q string) map[string]interface{} {
	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if q != "" {
		query = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name", "email", "event", "session"},
			},
		}
	}
	return map[string]interface{}{
		"size":  auditPageSize,
		"query": query,
		"sort": []interface{}{
			map[string]interface{}{"submitted_at": map[string]interface{}{"order": "desc"}},
		},
	}
}
