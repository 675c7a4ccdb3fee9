package view

import (
	"vouch-graph/backend/internal/names"
	"vouch-graph/backend/internal/render"
)

// Frame composes the current layout, selection and display names. Nodes that
// have not resolved yet are labelled with their id.
func (v *View) Frame() render.Frame {
	v.mu.RLock()
	model, sim, mode, banner := v.model, v.sim, v.mode, v.banner
	display := make(map[string]names.Result, len(v.display))
	for id, res := range v.display {
		display[id] = res
	}
	v.mu.RUnlock()

	frame := render.Frame{Banner: banner, Mode: mode.String()}
	if model == nil || sim == nil {
		return frame
	}

	snap := sim.Snapshot()
	sel := v.ctrl.Selection()
	frame.Tick = snap.Tick
	frame.Alpha = snap.Alpha

	frame.Nodes = make([]render.NodeView, 0, len(model.Nodes))
	for i, n := range model.Nodes {
		label := n.ID
		avatar := n.ImageURL
		if res, ok := display[n.ID]; ok {
			label = res.DisplayName
			avatar = res.AvatarURL
		}
		pos := snap.Positions[i]
		frame.Nodes = append(frame.Nodes, render.NodeView{
			ID:          n.ID,
			Label:       label,
			AvatarURL:   avatar,
			X:           pos.X,
			Y:           pos.Y,
			Color:       v.ctrl.NodeColor(n.ID),
			Selected:    sel.SelectedNodeID == n.ID,
			Highlighted: sel.IsNodeHighlighted(n.ID),
			Pinned:      pos.Pinned,
		})
	}

	frame.Links = make([]render.LinkView, 0, len(model.Links))
	for _, l := range model.Links {
		src, tgt := snap.Positions[l.SourceIndex], snap.Positions[l.TargetIndex]
		frame.Links = append(frame.Links, render.LinkView{
			ID:          l.ID,
			Source:      l.Source,
			Target:      l.Target,
			X1:          src.X,
			Y1:          src.Y,
			X2:          tgt.X,
			Y2:          tgt.Y,
			Color:       v.ctrl.LinkColor(l.ID),
			Width:       v.ctrl.LinkWidth(l.ID),
			Highlighted: sel.IsLinkHighlighted(l.ID),
		})
	}

	return frame
}
