package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jwebster45206/scene-engine/pkg/conditionals"
	"github.com/jwebster45206/scene-engine/pkg/scene"
	"github.com/jwebster45206/scene-engine/pkg/state"
)

const tracerName = "github.com/jwebster45206/scene-engine/pkg/engine"

// SceneResolver is the content-source capability the engine consumes.
type SceneResolver interface {
	Resolve(ctx context.Context, ref scene.LocationRef) (*scene.Source, error)
}

// Engine turns a location into a render model.
type Engine struct {
	resolver      SceneResolver
	logger        *slog.Logger
	tracer        trace.Tracer
	fallbackTitle string
}

type Option func(*Engine)

// WithFallbackTitle sets the day title used when a source has none. By
// default the source id is humanised.
func WithFallbackTitle(title string) Option {
	return func(e *Engine) { e.fallbackTitle = title }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func New(resolver SceneResolver, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// Present resolves ref and builds its render model against gs. On failure the
// frame carries a RenderError instead. Present never retries and never
// mutates game state.
func (e *Engine) Present(ctx context.Context, ref scene.LocationRef, gs state.View) Frame {
	ctx, span := e.tracer.Start(ctx, "engine.Present", trace.WithAttributes(
		attribute.String("scene.source", ref.SourceID),
		attribute.String("scene.key", ref.SceneKey),
	))
	defer span.End()

	src, err := e.resolver.Resolve(ctx, ref)
	if err == nil {
		_, err = src.Scene(ref.SceneKey)
	}
	if err != nil {
		re := newRenderError(ref, err)
		e.logger.Warn("Failed to present scene",
			"source", ref.SourceID,
			"scene", ref.SceneKey,
			"kind", re.Kind,
			"error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(re.Kind))
		return Frame{Err: re}
	}

	body := src.Scenes[ref.SceneKey]
	model := &RenderModel{
		Ref:         ref,
		DayTitle:    e.dayTitle(src),
		SceneTitle:  body.Title,
		Description: body.Description,
		Choices:     make([]ChoiceView, 0, len(body.Choices)),
		Terminal:    body.IsTerminal(),
	}

	for i, choice := range body.Choices {
		enabled := conditionals.IsSatisfied(gs, choice.Conditions)
		model.Choices = append(model.Choices, ChoiceView{
			Index:   i,
			Label:   choice.Label(enabled),
			Enabled: enabled,
			choice:  choice,
		})
	}

	if model.Terminal {
		e.logger.Warn("Scene has no choices", "source", ref.SourceID, "scene", ref.SceneKey)
	}
	span.SetAttributes(attribute.Int("scene.choices", len(model.Choices)))

	return Frame{Model: model}
}

func (e *Engine) dayTitle(src *scene.Source) string {
	if src.DayTitle != "" {
		return src.DayTitle
	}
	if e.fallbackTitle != "" {
		return e.fallbackTitle
	}
	return HumanizeSourceID(src.ID)
}
