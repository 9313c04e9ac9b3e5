package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

func (d *CPUDevice) runRenderTask(task *DeviceTask) {
	if task.AcquireTile != nil {
		d.pool.Run(task, splitRenderAcquireTask, d.renderAcquireLoopSubtask)
		return
	}
	d.pool.Run(task, d.splitRenderTask, d.renderSubtask)
}

// splitRenderAcquireTask hands every worker the same task: acquire_tile
// itself is the thing that divides the work, so each of count subtasks
// shares the one host-provided callback and loops until it returns false.
func splitRenderAcquireTask(task *DeviceTask, index, count int) *DeviceTask {
	return task
}

// renderAcquireLoopSubtask repeatedly pulls a whole tile from the host,
// renders every sample of it (plus any overscan denoise the tile's buffer
// calls for), and releases it, until AcquireTile reports no tile remains.
// One worker processes many tiles over its lifetime this way, rather than
// owning one pre-assigned tile for the task's duration.
func (d *CPUDevice) renderAcquireLoopSubtask(kg *kernel.Globals, task *DeviceTask) {
	for {
		if task.isCancelled() && !task.NeedFinishQueue {
			return
		}
		tile, ok := task.AcquireTile()
		if !ok {
			return
		}

		d.renderWholeTile(kg, task, tile)

		if task.ReleaseTile != nil {
			task.ReleaseTile(tile)
		}
	}
}

// renderWholeTile runs a tile's full path-trace sample loop, then — when
// the tile's buffer declares an overscan margin — denoises the inset
// filter_area using the tile's own rendered pixels (the overscan margin
// itself) as NLM search-window context, with no neighbor tiles involved.
func (d *CPUDevice) renderWholeTile(kg *kernel.Globals, task *DeviceTask, tile *RenderTile) {
	if tile.Buffer == nil || tile.Height == 0 {
		return
	}
	buffer := asFloat32Slice(tile.Buffer.Data)
	rng := asUint32Slice(tile.RNGState.Data)
	offset := tile.Offset()
	stride := tile.Stride()

	for sample := tile.StartSample; sample < tile.StartSample+tile.NumSamples; sample++ {
		if task.isCancelled() && !task.NeedFinishQueue {
			return
		}
		for y := tile.Y; y < tile.Y+tile.Height; y++ {
			for x := tile.X; x < tile.X+tile.Width; x++ {
				d.kernels.pathTrace.get()(kg, buffer, rng, sample, x, y, offset, stride)
				if d.options.DebugFPE {
					checkFPE(buffer, (offset+y*stride+x)*kg.Film.PassStride, kg.Film.PassStride, tile.X, tile.Y, sample)
				}
			}
		}
		tile.Sample = sample + 1
		if task.UpdateProgress != nil {
			if !task.UpdateProgress(tile, tile.Width*tile.Height) {
				return
			}
		}
	}

	if tile.Params.Overscan > 0 && !task.isCancelled() {
		d.denoiseOverscanTile(kg, tile)
	}
}

// denoiseOverscanTile runs prefill and reconstruction for a single tile,
// limited to its inset filter_area (the tile shrunk inward by its own
// Overscan on every side). The full tile rect, overscan margin included,
// is both the prefill context and the NLM search window; no neighbor
// tiles are involved, unlike a combined DENOISE task.
func (d *CPUDevice) denoiseOverscanTile(kg *kernel.Globals, tile *RenderTile) {
	overscan := tile.Params.Overscan
	full := kernel.Rect{tile.X, tile.Y, tile.X + tile.Width, tile.Y + tile.Height}
	filterArea := kernel.Rect{tile.X + overscan, tile.Y + overscan, tile.X + tile.Width - overscan, tile.Y + tile.Height - overscan}
	if filterArea[2] <= filterArea[0] || filterArea[3] <= filterArea[1] {
		return
	}

	var tiles [9]*RenderTile
	tiles[4] = tile
	tileX := [4]int{full[0] - 1, full[0], full[2], full[2] + 1}
	tileY := [4]int{full[1] - 1, full[1], full[3], full[3] + 1}

	prefill := &PrefillInput{
		Tiles:          tiles,
		TileX:          tileX,
		TileY:          tileY,
		Rect:           full,
		Frame:          0,
		Frames:         1,
		Sample:         tile.Sample,
		A:              1.0,
		K2:             1.0,
		HalfWindow:     kg.Integrator.HalfWindow,
		FeatureOffsets: kg.Film.DenoiseFeatures,
		ColorOffset:    kg.Film.DenoiseColorOffset,
		ColorOffsetB:   kg.Film.DenoiseColorOffsetB,
		CrossDenoise:   kg.Film.DenoiseCross,
	}
	filterBuffer := d.denoiseFillBuffer(kg, prefill)
	d.maybeDumpFilterBuffer(filterBuffer, prefill.CrossDenoise, full[2]-full[0], full[3]-full[1])

	d.denoiseRun(kg, &ReconstructInput{
		FilterBuffer:    filterBuffer,
		FilterRect:      full,
		Rect:            filterArea,
		HalfWindow:      kg.Integrator.HalfWindow,
		A:               1.0,
		K2:              1.0,
		Buffer:          tile.Buffer,
		BufferOffset:    tile.Offset(),
		BufferStride:    tile.Stride(),
		PassNoDenoising: kg.Film.PassNoDenoising,
		Sample:          tile.Sample,
	})
}

// splitRenderTask divides a render tile into count horizontal bands, one
// per worker, each owning disjoint rows of the same tile and buffer. This
// is the legacy convenience form: a single pre-assigned tile split across
// workers, with no overscan denoise (a row band only owns its own rows,
// never the whole tile a denoise pass would need).
func (d *CPUDevice) splitRenderTask(task *DeviceTask, index, count int) *DeviceTask {
	tile := task.Tile
	rowsPerWorker := (tile.Height + count - 1) / count
	y0 := index * rowsPerWorker
	y1 := y0 + rowsPerWorker
	if y1 > tile.Height {
		y1 = tile.Height
	}
	if y0 >= y1 {
		return &DeviceTask{Type: TaskRender, Tile: &RenderTile{}, ReleaseTile: task.ReleaseTile, UpdateProgress: task.UpdateProgress, Cancelled: task.Cancelled}
	}

	sub := *tile
	sub.Y = tile.Y + y0
	sub.Height = y1 - y0

	cp := *task
	cp.Tile = &sub
	return &cp
}

func (d *CPUDevice) renderSubtask(kg *kernel.Globals, sub *DeviceTask) {
	tile := sub.Tile
	if tile.Buffer == nil || tile.Height == 0 {
		return
	}
	buffer := asFloat32Slice(tile.Buffer.Data)
	rng := asUint32Slice(tile.RNGState.Data)
	offset := tile.Offset()
	stride := tile.Stride()

	for sample := tile.StartSample; sample < tile.StartSample+tile.NumSamples; sample++ {
		if sub.isCancelled() && !sub.NeedFinishQueue {
			break
		}
		for y := tile.Y; y < tile.Y+tile.Height; y++ {
			for x := tile.X; x < tile.X+tile.Width; x++ {
				d.kernels.pathTrace.get()(kg, buffer, rng, sample, x, y, offset, stride)
				if d.options.DebugFPE {
					checkFPE(buffer, (offset+y*stride+x)*kg.Film.PassStride, kg.Film.PassStride, tile.X, tile.Y, sample)
				}
			}
		}
		if sub.UpdateProgress != nil {
			if !sub.UpdateProgress(tile, tile.Width*tile.Height) {
				break
			}
		}
	}
	if sub.ReleaseTile != nil {
		sub.ReleaseTile(tile)
	}
}
