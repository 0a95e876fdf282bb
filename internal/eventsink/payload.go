// Package eventsink holds consumers of layer graph events: a structured log
// sink, a socket.io forwarder for presentation clients, and an in-memory
// recorder.
package eventsink

import (
	"github.com/vk/recongraph/internal/reconstruct"
)

// Payload flattens ev into a JSON-friendly map. Handles are rendered with
// their String form; fields that do not apply to the event kind are omitted.
func Payload(ev reconstruct.Event) map[string]any {
	p := map[string]any{"kind": ev.Kind.String()}

	switch ev.Kind {
	case reconstruct.InputFileAdded, reconstruct.InputFileAboutToBeRemoved, reconstruct.InputFileModified:
		if ev.File != nil {
			p["file"] = ev.File.FileID()
		}
		return p
	case reconstruct.DefaultLayerChanged:
		p["old_default"] = ev.OldDefault.String()
		p["new_default"] = ev.NewDefault.String()
		return p
	}

	p["layer"] = ev.Layer.String()
	p["layer_kind"] = ev.LayerKind.String()

	switch ev.Kind {
	case reconstruct.LayerActivationChanged:
		p["active"] = ev.Active
	case reconstruct.ConnectionAdded, reconstruct.ConnectionAboutToBeRemoved, reconstruct.ConnectionRemoved:
		p["connection"] = ev.Connection.String()
		p["channel"] = ev.Channel.String()
		if ev.File != nil {
			p["file"] = ev.File.FileID()
		} else {
			p["source_layer"] = ev.SourceLayer.String()
		}
	}
	return p
}

// UpdatePayload summarizes an update cycle for presentation clients.
func UpdatePayload(res *reconstruct.UpdateResult) map[string]any {
	failed := make(map[string]string, len(res.Failed))
	for ref, err := range res.Failed {
		failed[ref.String()] = err.Error()
	}
	return map[string]any{
		"time":            res.Time,
		"anchor_plate_id": res.AnchorPlateID,
		"computed":        len(res.Computed),
		"skipped":         len(res.Skipped),
		"failed":          failed,
		"identity_tree":   res.DefaultReconstructionTree.Identity,
	}
}
