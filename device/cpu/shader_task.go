package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

func (d *CPUDevice) runShaderTask(task *DeviceTask) {
	d.pool.Run(task, d.splitShaderTask, d.shaderSubtask)
}

// splitShaderTask divides the shader input range into count contiguous
// chunks; count is already capped at 256 by DeviceTask.splitCount.
func (d *CPUDevice) splitShaderTask(task *DeviceTask, index, count int) *DeviceTask {
	perWorker := (task.W + count - 1) / count
	x0 := index * perWorker
	x1 := x0 + perWorker
	if x1 > task.W {
		x1 = task.W
	}
	cp := *task
	cp.X = task.X + x0
	cp.W = x1 - x0
	return &cp
}

func (d *CPUDevice) shaderSubtask(kg *kernel.Globals, sub *DeviceTask) {
	if sub.W <= 0 || sub.ShaderInput == nil || sub.ShaderOutput == nil {
		return
	}
	input := asUint32Slice(sub.ShaderInput.Data)
	output := asFloat32Slice(sub.ShaderOutput.Data)
	var luma []float32
	if sub.ShaderOutputLuma != nil {
		luma = asFloat32Slice(sub.ShaderOutputLuma.Data)
	}

	fn := d.kernels.shader.get()
	for x := sub.X; x < sub.X+sub.W; x++ {
		if sub.isCancelled() {
			return
		}
		fn(kg, input, output, luma, sub.ShaderEvalType, sub.ShaderFilterType, x, sub.ShaderOffset, sub.ShaderSampleSet)
	}
}
