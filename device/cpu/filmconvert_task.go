package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

func (d *CPUDevice) runFilmConvertTask(task *DeviceTask) {
	d.pool.Run(task, d.splitFilmConvertTask, d.filmConvertSubtask)
}

// splitFilmConvertTask divides the output rectangle into count horizontal
// bands.
func (d *CPUDevice) splitFilmConvertTask(task *DeviceTask, index, count int) *DeviceTask {
	rowsPerWorker := (task.H + count - 1) / count
	y0 := index * rowsPerWorker
	y1 := y0 + rowsPerWorker
	if y1 > task.H {
		y1 = task.H
	}
	cp := *task
	cp.Y = task.Y + y0
	cp.H = y1 - y0
	return &cp
}

func (d *CPUDevice) filmConvertSubtask(kg *kernel.Globals, sub *DeviceTask) {
	if sub.H <= 0 || sub.Buffer == nil || sub.RGBA == nil {
		return
	}
	buffer := asFloat32Slice(sub.Buffer.Data)
	out := sub.RGBA.Data

	convert := d.kernels.convertToByte.get()
	if sub.HalfFloat {
		convert = d.kernels.convertToHalfFloat.get()
	}

	for y := sub.Y; y < sub.Y+sub.H; y++ {
		if sub.isCancelled() {
			return
		}
		for x := sub.X; x < sub.X+sub.W; x++ {
			convert(kg, out, buffer, sub.SampleScale, x, y, sub.Offset, sub.Stride)
		}
	}
}
