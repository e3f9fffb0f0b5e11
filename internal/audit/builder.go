package audit

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/resolver"
)

// EventBuilder provides a fluent API for constructing audit events.
//
// Usage:
//
//	event := audit.NewEventBuilder(ctx, audit.ActionResponded).
//		ForCatalog(cat.Version()).
//		WithStates(classification.Names()).
//		WithIntention(in).
//		WithSelection(sel).
//		Build()
//
//	service.Log(event)
type EventBuilder struct {
	event Event
}

// NewEventBuilder starts an event, taking the request ID from ctx when the chi
// RequestID middleware set one.
func NewEventBuilder(ctx context.Context, action string) *EventBuilder {
	return &EventBuilder{
		event: Event{
			RequestID: middleware.GetReqID(ctx),
			Action:    action,
			Status:    StatusSuccess,
		},
	}
}

// ForCatalog sets the catalog version the event refers to.
func (b *EventBuilder) ForCatalog(version string) *EventBuilder {
	b.event.CatalogVersion = version
	return b
}

// WithStates sets the matched state names.
func (b *EventBuilder) WithStates(states []string) *EventBuilder {
	b.event.States = states
	return b
}

// WithIntention copies the requester intention.
func (b *EventBuilder) WithIntention(in intent.Intention) *EventBuilder {
	b.event.Primary = in.Primary
	b.event.Secondary = in.Secondary
	b.event.Attributes = in.Attributes
	return b
}

// WithSelection copies the resolver outcome.
func (b *EventBuilder) WithSelection(sel resolver.Selection) *EventBuilder {
	b.event.TemplateID = sel.TemplateID
	b.event.Tier = string(sel.Tier)
	b.event.Default = sel.Default
	b.event.Acknowledged = sel.Acknowledged
	return b
}

// WithRenderIssues records how many degraded expansions the render had.
func (b *EventBuilder) WithRenderIssues(n int) *EventBuilder {
	b.event.RenderIssues = n
	return b
}

// Failure marks the event as failed and sets an error message.
func (b *EventBuilder) Failure(errorMsg string) *EventBuilder {
	b.event.Status = StatusFailure
	b.event.ErrorMessage = errorMsg
	return b
}

// Build returns the constructed Event.
func (b *EventBuilder) Build() Event {
	return b.event
}
