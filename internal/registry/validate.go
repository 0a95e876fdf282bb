package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/task"
)

// ValidateRegistry performs a strict parity check between the declared layer
// kinds and the registered Go code.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range task.Kinds() {
		factory, ok := r.factories[kind]
		if !ok {
			errs = append(errs, fmt.Sprintf("kind '%s': no layer factory registered", kind))
			continue
		}

		t := factory()
		if t == nil {
			errs = append(errs, fmt.Sprintf("kind '%s': factory returned a nil task", kind))
			continue
		}
		if t.Kind() != kind {
			errs = append(errs, fmt.Sprintf("kind '%s': factory builds a task of kind '%s'", kind, t.Kind()))
		}

		defs := t.InputChannels()
		for i, d := range defs {
			for _, other := range defs[i+1:] {
				if other.Channel == d.Channel {
					errs = append(errs, fmt.Sprintf("kind '%s': channel '%s' declared twice", kind, d.Channel))
				}
			}
			if !d.AcceptsFiles && len(d.LayerKinds) == 0 {
				errs = append(errs, fmt.Sprintf("kind '%s', channel '%s': accepts neither files nor layers", kind, d.Channel))
			}
		}

		main, ok := task.FindChannel(defs, t.MainInputChannel())
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("kind '%s': main input channel '%s' is not declared", kind, t.MainInputChannel()))
		case !main.AcceptsFiles:
			errs = append(errs, fmt.Sprintf("kind '%s': main input channel '%s' does not accept files", kind, main.Channel))
		}
	}

	for format, kinds := range r.autoLayers {
		for _, kind := range kinds {
			if _, ok := r.factories[kind]; !ok {
				errs = append(errs, fmt.Sprintf("format '%s': auto layer kind '%s' has no factory", format, kind))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated.", "kinds", len(r.factories))
	return nil
}
