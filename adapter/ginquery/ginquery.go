// Package ginquery exposes a [domain.Parser] and a [domain.Runner] as gin
// handlers, so a collection can be queried straight from a URL.
package ginquery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/logging"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/params"
)

const descriptorKey = "restquery.descriptor"

type handler struct {
	parser          domain.Parser
	runner          domain.Runner
	logger          logrus.FieldLogger
	requestIDHeader string
}

func newHandler(p domain.Parser, r domain.Runner, options ...Option) *handler {
	h := &handler{
		parser:          p,
		runner:          r,
		logger:          logging.Discard(),
		requestIDHeader: "X-Request-Id",
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Middleware parses the raw query of every request and stores the
// descriptor for [Descriptor]. Requests that cannot be parsed are answered
// with 400.
func Middleware(p domain.Parser, options ...Option) gin.HandlerFunc {
	h := newHandler(p, nil, options...)
	return func(c *gin.Context) {
		if _, ok := h.parse(c); ok {
			c.Next()
		}
	}
}

// Handler parses the request like [Middleware] and runs the descriptor,
// answering with the result as JSON.
func Handler(p domain.Parser, r domain.Runner, options ...Option) gin.HandlerFunc {
	h := newHandler(p, r, options...)
	return func(c *gin.Context) {
		d, ok := Descriptor(c)
		if !ok {
			if d, ok = h.parse(c); !ok {
				return
			}
		}
		res, err := h.runner.Run(c.Request.Context(), d)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res.Value())
	}
}

// Descriptor returns the descriptor stored by [Middleware].
func Descriptor(c *gin.Context) (domain.Descriptor, bool) {
	v, ok := c.Get(descriptorKey)
	if !ok {
		return domain.Descriptor{}, false
	}
	d, ok := v.(domain.Descriptor)
	return d, ok
}

func (h *handler) parse(c *gin.Context) (domain.Descriptor, bool) {
	id := h.requestID(c)
	ps, err := params.FromQuery(c.Request.URL.RawQuery)
	if err == nil {
		var d domain.Descriptor
		if d, err = h.parser.Parse(ps); err == nil {
			h.logger.WithFields(logrus.Fields{
				"request":   id,
				"operation": d.Operation,
			}).Debug("parsed request query")
			c.Set(descriptorKey, d)
			return d, true
		}
	}
	h.fail(c, err)
	return domain.Descriptor{}, false
}

func (h *handler) requestID(c *gin.Context) string {
	id := c.GetHeader(h.requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(h.requestIDHeader, id)
	c.Set("request_id", id)
	return id
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"error": err.Error()}

	var perr domain.ErrParse
	var serr domain.ErrSecurityRejection
	switch {
	case errors.As(err, &perr):
		body["param"] = perr.Param
	case errors.As(err, &serr):
		body["param"] = serr.Key
	}

	entry := h.logger.WithFields(logrus.Fields{
		"request": c.GetString("request_id"),
		"status":  status,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("query failed")
	} else {
		entry.Warn("query rejected")
	}
	c.AbortWithStatusJSON(status, body)
}

func statusOf(err error) int {
	var qerr params.ErrQuery
	switch {
	case errors.Is(err, domain.ErrParseFailed),
		errors.Is(err, domain.ErrSecurity),
		errors.As(err, &qerr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCodeExecutionDisabled):
		return http.StatusForbidden
	case errors.As(err, &domain.ErrUnsupportedOperation{}):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
