package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"

	"wellness-step-by-step/client-form/dataservice"
	"wellness-step-by-step/client-form/events"
	"wellness-step-by-step/client-form/form"
	"wellness-step-by-step/client-form/models"
	"wellness-step-by-step/client-form/monitoring"
	"wellness-step-by-step/client-form/session"
)

const SessionCookie = "client_form_session"

type SubmissionPublisher interface {
	PublishAsync(event events.SubmissionEvent) <-chan struct{}
}

type ClientFormHandler struct {
	svc        dataservice.Service
	sessions   session.Store
	publisher  SubmissionPublisher
	logger     logrus.FieldLogger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewClientFormHandler wires the form pages. publisher may be nil when Kafka
// is not configured.
func NewClientFormHandler(svc dataservice.Service, sessions session.Store, publisher SubmissionPublisher, logger logrus.FieldLogger, sessionTTL time.Duration) *ClientFormHandler {
	return &ClientFormHandler{
		svc:        svc,
		sessions:   sessions,
		publisher:  publisher,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (h *ClientFormHandler) Register(r gin.IRouter) {
	clients := r.Group("/clients")
	{
		clients.GET("/new", h.NewClient)
		clients.GET("/:id/edit", h.EditClient)
		clients.GET("/form", h.ShowForm)
		clients.POST("/form/field", h.ChangeField)
		clients.POST("/form/submit", h.Submit)
		clients.POST("/form/notice/close", h.CloseNotice)
		clients.POST("/form/dialog/ok", h.DialogOK)
		clients.POST("/form/dialog/close", h.CloseDialog)
	}
}

func (h *ClientFormHandler) NewClient(c *gin.Context) {
	h.mount(c, models.CreateMode())
}

func (h *ClientFormHandler) EditClient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client ID format"})
		return
	}
	h.mount(c, models.UpdateMode(id))
}

// mount starts a fresh form for the visitor's session and loads its record.
func (h *ClientFormHandler) mount(c *gin.Context, mode models.Mode) {
	sid := h.sessionID(c)
	f := form.New(h.svc, mode)

	outcome, err := f.Mount(c.Request.Context())
	monitoring.FormLoads.WithLabelValues(mode.String(), outcome.String()).Inc()

	status := http.StatusOK
	if err != nil {
		_ = c.Error(err)
		status = http.StatusBadGateway
	}
	h.log(sid, mode).WithField("outcome", outcome.String()).Debug("form mounted")

	if !h.save(c, sid, f) {
		return
	}
	h.render(c, status, f)
}

func (h *ClientFormHandler) ShowForm(c *gin.Context) {
	_, f, ok := h.current(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, f)
}

type fieldChange struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (h *ClientFormHandler) ChangeField(c *gin.Context) {
	var req fieldChange
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid, f, ok := h.current(c)
	if !ok {
		return
	}

	if _, err := f.Change(req.Field, req.Value); err != nil {
		if errors.Is(err, form.ErrUnknownField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !h.save(c, sid, f) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"values": f.Values(),
		"errors": f.VisibleErrors(),
	})
}

func (h *ClientFormHandler) Submit(c *gin.Context) {
	sid, f, ok := h.current(c)
	if !ok {
		return
	}

	var values models.Values
	if err := c.ShouldBind(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.SetValues(values)
	submitted := f.Values()
	mode := f.Mode()

	outcome, err := f.Submit(c.Request.Context())
	monitoring.FormSubmissions.WithLabelValues(mode.String(), outcome.String()).Inc()
	h.log(sid, mode).WithField("outcome", outcome.String()).Info("form submitted")

	status := http.StatusOK
	switch outcome {
	case form.Invalid:
		status = http.StatusUnprocessableEntity
	case form.Failed:
		status = http.StatusBadGateway
	case form.Succeeded:
		h.publish(sid, mode, submitted)
	}
	if err != nil {
		_ = c.Error(err)
	}

	if !h.save(c, sid, f) {
		return
	}
	h.render(c, status, f)
}

func (h *ClientFormHandler) CloseNotice(c *gin.Context) {
	h.dismiss(c, func(f *form.ClientForm) { f.Notice().Acknowledge() })
}

func (h *ClientFormHandler) DialogOK(c *gin.Context) {
	h.dismiss(c, func(f *form.ClientForm) { f.Dialog().OK() })
}

func (h *ClientFormHandler) CloseDialog(c *gin.Context) {
	h.dismiss(c, func(f *form.ClientForm) { f.Dialog().Close() })
}

func (h *ClientFormHandler) dismiss(c *gin.Context, fn func(*form.ClientForm)) {
	sid, f, ok := h.current(c)
	if !ok {
		return
	}
	fn(f)
	if !h.save(c, sid, f) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/clients/form")
}

func (h *ClientFormHandler) publish(sid string, mode models.Mode, values models.Values) {
	if h.publisher == nil {
		return
	}
	record, err := values.Record(mode)
	if err != nil {
		h.log(sid, mode).WithError(err).Warn("submission event skipped")
		return
	}
	h.publisher.PublishAsync(events.NewSubmissionEvent(mode, record, sid, h.now()))
}

// current restores the session's form. Without one the visitor is sent to a
// new form.
func (h *ClientFormHandler) current(c *gin.Context) (string, *form.ClientForm, bool) {
	sid, err := c.Cookie(SessionCookie)
	if err != nil || !session.ValidID(sid) {
		c.Redirect(http.StatusSeeOther, "/clients/new")
		return "", nil, false
	}

	state, err := h.sessions.Load(c.Request.Context(), sid)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.Redirect(http.StatusSeeOther, "/clients/new")
			return "", nil, false
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load form session"})
		return "", nil, false
	}
	return sid, form.Restore(h.svc, state), true
}

func (h *ClientFormHandler) save(c *gin.Context, sid string, f *form.ClientForm) bool {
	if err := h.sessions.Save(c.Request.Context(), sid, f.State()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save form session"})
		return false
	}
	return true
}

// sessionID reuses the visitor's cookie or issues a new one.
func (h *ClientFormHandler) sessionID(c *gin.Context) string {
	sid, err := c.Cookie(SessionCookie)
	if err != nil || !session.ValidID(sid) {
		sid = session.NewID()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sid, int(h.sessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	return sid
}

func (h *ClientFormHandler) render(c *gin.Context, status int, f *form.ClientForm) {
	c.Render(status, render.HTML{
		Template: formTemplate,
		Name:     "client_form.html",
		Data:     newFormView(f),
	})
}

func (h *ClientFormHandler) log(sid string, mode models.Mode) *logrus.Entry {
	entry := h.logger.WithFields(logrus.Fields{"session": sid, "mode": mode.String()})
	if id, ok := mode.ID(); ok {
		entry = entry.WithField("client_id", id)
	}
	return entry
}
