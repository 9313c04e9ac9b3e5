package cpu

import "github.com/achilleasa/go-pathtrace-cpu/kernel"

// TaskType selects which thread_* loop a DeviceTask runs through.
type TaskType int

const (
	TaskRender TaskType = iota
	TaskFilmConvert
	TaskShader
	TaskDenoise
)

func (t TaskType) String() string {
	switch t {
	case TaskRender:
		return "render"
	case TaskFilmConvert:
		return "film_convert"
	case TaskShader:
		return "shader"
	case TaskDenoise:
		return "denoise"
	default:
		return "unknown"
	}
}

// DeviceTask is one unit of device work, built by the host and split by
// the device into as many subtasks as it has worker threads for. Only the
// fields relevant to Type are populated by the host; the rest are ignored.
type DeviceTask struct {
	Type TaskType

	// Render. Tile is the legacy single-tile convenience form, split into
	// row-bands across workers. AcquireTile, when set, switches the
	// render loop to the acquire_tile model instead: each worker repeatedly
	// pulls a whole tile from the host, renders every sample of it (plus
	// any overscan denoise pass its BufferParams.Overscan calls for), then
	// releases it and asks for the next one, until AcquireTile reports no
	// tile remains.
	Tile        *RenderTile
	AcquireTile func() (*RenderTile, bool)

	// FilmConvert.
	RGBA        *DeviceMemory
	Buffer      *DeviceMemory
	SampleScale float32
	HalfFloat   bool
	X, Y, W, H  int
	Offset      int
	Stride      int
	Sample      int

	// Shader.
	ShaderInput      *DeviceMemory
	ShaderOutput     *DeviceMemory
	ShaderOutputLuma *DeviceMemory
	ShaderEvalType   kernel.EvalType
	ShaderFilterType int
	ShaderOffset     int
	ShaderSampleSet  int

	// Denoise. Tiles holds the center tile plus its eight neighbors in
	// row-major order (index 4 is the center); nil entries mean the
	// neighbor lies outside the frame.
	Tiles       [9]*RenderTile
	DenoiseRect kernel.Rect

	// NeedFinishQueue means task_wait must keep draining subtasks that
	// were already handed to a worker even after a cancel request,
	// instead of abandoning them once cancellation is observed.
	NeedFinishQueue bool

	// ReleaseTile is invoked once a render subtask's tile has reached
	// its target sample count or the task is cancelled.
	ReleaseTile func(tile *RenderTile)

	// UpdateProgress reports sample progress back to the host; a false
	// return requests cooperative cancellation.
	UpdateProgress func(tile *RenderTile, samplesRendered int) bool

	// Cancelled reports whether the host has asked the device to stop.
	// Nil means never cancelled.
	Cancelled func() bool
}

func (t *DeviceTask) isCancelled() bool {
	return t.Cancelled != nil && t.Cancelled()
}

// splitCount returns how many subtasks a task should be broken into given
// numThreads available workers, matching get_split_task_count's per-type
// caps.
func (t *DeviceTask) splitCount(numThreads int) int {
	switch t.Type {
	case TaskDenoise:
		// The Gramian accumulation is not embarrassingly parallel
		// across workers without a merge step, so one tile's denoise
		// task runs as a single subtask.
		return 1
	case TaskShader:
		n := t.W
		if n > numThreads {
			n = numThreads
		}
		if n > 256 {
			n = 256
		}
		if n < 1 {
			n = 1
		}
		return n
	default:
		if numThreads < 1 {
			return 1
		}
		return numThreads
	}
}
