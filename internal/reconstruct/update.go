package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/recongraph/internal/task"
)

// UpdateResult summarizes one update cycle.
type UpdateResult struct {
	Time          float64
	AnchorPlateID uint64

	// Order is the dependency order the cycle walked.
	Order []LayerRef
	// Computed lists layers with a valid output this cycle, in order.
	Computed []LayerRef
	// Skipped lists inactive layers.
	Skipped []LayerRef
	// Failed maps each layer whose compute returned an error to that error.
	Failed map[LayerRef]error

	// DefaultReconstructionTree is the tree every layer after the default
	// layer observed. It is the identity tree when there was no usable
	// default layer.
	DefaultReconstructionTree *task.ReconstructionTree
}

// Update runs one synchronous compute cycle at the given reconstruction time
// and anchor plate. Layers compute in dependency order and see only outputs
// computed earlier in the same cycle.
//
// Failed layer computes do not stop the cycle: their outputs stay invalid,
// they are listed in UpdateResult.Failed, and the joined errors are
// returned alongside the result.
func (g *Graph) Update(ctx context.Context, reconstructionTime float64, anchor uint64) (*UpdateResult, error) {
	const op = "Graph.Update"
	if g.updating {
		updateCycles.WithLabelValues("rejected").Inc()
		return nil, &GraphError{Kind: ErrUpdating, Op: op}
	}
	g.updating = true
	defer func() { g.updating = false }()

	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "reconstruct.Graph.Update", trace.WithAttributes(
		attribute.Float64("reconstruction.time", reconstructionTime),
		attribute.Int64("reconstruction.anchor_plate_id", int64(anchor)),
		attribute.Int("graph.layers", g.layers.len()),
	))
	defer span.End()

	identity := task.IdentityReconstructionTree(reconstructionTime, anchor)
	g.identityProxy.set(identity)
	g.defaultTree = identity
	for _, l := range g.layerOrder {
		l.output.proxy().invalidate()
	}

	order := g.dependencyOrder()
	res := &UpdateResult{
		Time:          reconstructionTime,
		AnchorPlateID: anchor,
		Order:         make([]LayerRef, 0, len(order)),
		Failed:        make(map[LayerRef]error),
	}

	var errs []error
	for _, l := range order {
		ref := l.Ref()
		res.Order = append(res.Order, ref)
		if !l.active {
			res.Skipped = append(res.Skipped, ref)
			continue
		}

		state := task.State{
			Time:                      reconstructionTime,
			AnchorPlateID:             anchor,
			DefaultReconstructionTree: g.defaultTree,
		}
		out, err := g.computeLayer(ctx, l, state)
		if err != nil {
			res.Failed[ref] = err
			errs = append(errs, fmt.Errorf("%s %s: %w", l.Kind(), ref, err))
			g.logger.Warn("Layer compute failed.", "layer", ref, "layer_kind", l.Kind(), "error", err)
			continue
		}
		l.output.proxy().set(out)
		res.Computed = append(res.Computed, ref)

		if ref == g.defaultLayer {
			if tree, ok := out.(*task.ReconstructionTree); ok && tree != nil {
				g.defaultTree = tree
			}
		}
	}
	res.DefaultReconstructionTree = g.defaultTree

	updateDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("update.computed", len(res.Computed)),
		attribute.Int("update.failed", len(res.Failed)),
	)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		updateCycles.WithLabelValues("failed").Inc()
		return res, err
	}
	updateCycles.WithLabelValues("ok").Inc()
	g.logger.Debug("Update cycle complete.", "time", reconstructionTime, "anchor", anchor,
		"computed", len(res.Computed), "skipped", len(res.Skipped))
	return res, nil
}

func (g *Graph) computeLayer(ctx context.Context, l *Layer, state task.State) (any, error) {
	kind := l.Kind().String()
	ctx, span := g.tracer.Start(ctx, "reconstruct.Layer.Compute", trace.WithAttributes(
		attribute.String("layer.kind", kind),
		attribute.String("layer.ref", l.Ref().String()),
	))
	defer span.End()

	start := time.Now()
	out, err := l.task.Compute(ctx, state)
	layerComputeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		layerComputeFailures.WithLabelValues(kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}
