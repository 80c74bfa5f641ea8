package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storefront-auth/pkg/helpers"
	"github.com/oksasatya/storefront-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/storefront-auth/pkg/mailer/templates"
)

type outcome int

const (
	ack   outcome = iota
	drop          // malformed or unrenderable; never retried
	retry         // delivery failed; back on the queue
)

const sendTimeout = 15 * time.Second

type jobHandler struct {
	sender   mailer.Sender
	resolver mailtpl.GeoResolver
	logger   *logrus.Logger
}

// handle renders and sends one queued EmailJob.
func (h *jobHandler) handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		h.logger.WithError(err).Warn("bad message")
		return drop
	}
	if strings.TrimSpace(job.To) == "" {
		h.logger.Warn("message without recipient")
		return drop
	}

	helpers.EnsureRecipientAndEmail(&job)
	helpers.MapTypeToUniversal(&job)
	if h.resolver != nil {
		helpers.LocalizeTimesIfPossible(ctx, h.resolver, job.Data)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if strings.EqualFold(job.Template, mailtpl.Universal) {
			h.fillLocation(ctx, job.Data)
			subject = helpers.SubjectForUniversal(job.Data)
		}
		t, hm, err := mailtpl.Render(strings.ToLower(job.Template), job.Data)
		if err != nil {
			h.logger.WithError(err).WithField("template", job.Template).Error("render failed")
			return drop
		}
		text, html = t, hm
	}
	if subject == "" || (text == "" && html == "") {
		h.logger.WithField("to", job.To).Warn("message without subject or body")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := h.sender.Send(c, job.To, subject, text, html); err != nil {
		h.logger.WithError(err).WithField("to", job.To).Error("send failed")
		return retry
	}
	helpers.LogInfo(h.logger, "email sent", logrus.Fields{"to": job.To, "type": job.Data["Type"]})
	return ack
}

func (h *jobHandler) fillLocation(ctx context.Context, data map[string]any) {
	if h.resolver == nil {
		return
	}
	if loc, ok := data["Location"]; ok && fmt.Sprintf("%v", loc) != "" {
		return
	}
	ipVal, ok := data["IP"]
	if !ok {
		return
	}
	if g, err := h.resolver.Lookup(ctx, fmt.Sprintf("%v", ipVal)); err == nil {
		if s := mailtpl.FormatGeo(g); s != "" {
			data["Location"] = s
		}
	}
}
