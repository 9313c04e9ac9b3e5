package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

func (d *CPUDevice) runDenoiseTask(task *DeviceTask) {
	d.pool.Run(task, func(t *DeviceTask, index, count int) *DeviceTask { return t }, d.denoiseSubtask)
}

func (d *CPUDevice) denoiseSubtask(kg *kernel.Globals, sub *DeviceTask) {
	center := sub.Tiles[4]
	if center == nil {
		return
	}

	filterArea := sub.DenoiseRect
	tileX := [4]int{filterArea[0] - 1, filterArea[0], filterArea[2], filterArea[2] + 1}
	tileY := [4]int{filterArea[1] - 1, filterArea[1], filterArea[3], filterArea[3] + 1}

	rect := expandDenoiseRect(filterArea, sub.Tiles, kg.Integrator.HalfWindow)

	prefill := &PrefillInput{
		Tiles:          sub.Tiles,
		TileX:          tileX,
		TileY:          tileY,
		Rect:           rect,
		Frame:          0,
		Frames:         1,
		Sample:         center.Sample,
		A:              1.0,
		K2:             1.0,
		HalfWindow:     kg.Integrator.HalfWindow,
		FeatureOffsets: kg.Film.DenoiseFeatures,
		ColorOffset:    kg.Film.DenoiseColorOffset,
		ColorOffsetB:   kg.Film.DenoiseColorOffsetB,
		CrossDenoise:   kg.Film.DenoiseCross,
	}
	filterBuffer := d.denoiseFillBuffer(kg, prefill)
	d.maybeDumpFilterBuffer(filterBuffer, prefill.CrossDenoise, rect[2]-rect[0], rect[3]-rect[1])
	if sub.isCancelled() {
		return
	}

	d.denoiseRun(kg, &ReconstructInput{
		FilterBuffer:    filterBuffer,
		FilterRect:      rect,
		Rect:            filterArea,
		HalfWindow:      kg.Integrator.HalfWindow,
		A:               1.0,
		K2:              1.0,
		Buffer:          center.Buffer,
		BufferOffset:    center.Offset(),
		BufferStride:    center.Stride(),
		PassNoDenoising: kg.Film.PassNoDenoising,
		Sample:          center.Sample,
	})

	if sub.ReleaseTile != nil {
		sub.ReleaseTile(center)
	}
}

// expandDenoiseRect widens filterArea outward by hw in every direction,
// clipped against the outer bounds of the 3x3 neighborhood of tiles
// actually present in tiles. This is the working rect prefill and
// reconstruction search against: it supplies the NLM search window
// margin the filter_area's own pixels alone can't provide.
func expandDenoiseRect(filterArea kernel.Rect, tiles [9]*RenderTile, hw int) kernel.Rect {
	bound := filterArea
	for _, t := range tiles {
		if t == nil {
			continue
		}
		if t.X < bound[0] {
			bound[0] = t.X
		}
		if t.Y < bound[1] {
			bound[1] = t.Y
		}
		if t.X+t.Width > bound[2] {
			bound[2] = t.X + t.Width
		}
		if t.Y+t.Height > bound[3] {
			bound[3] = t.Y + t.Height
		}
	}

	rect := kernel.Rect{filterArea[0] - hw, filterArea[1] - hw, filterArea[2] + hw, filterArea[3] + hw}
	if rect[0] < bound[0] {
		rect[0] = bound[0]
	}
	if rect[1] < bound[1] {
		rect[1] = bound[1]
	}
	if rect[2] > bound[2] {
		rect[2] = bound[2]
	}
	if rect[3] > bound[3] {
		rect[3] = bound[3]
	}
	return rect
}
