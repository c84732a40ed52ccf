package runner

// State 运行器状态
type State string

const (
	StateIdle     State = "idle"     // 尚未启动
	StateRunning  State = "running"  // 循环中
	StateStopping State = "stopping" // 已请求停止，等待当前周期结束
	StateStopped  State = "stopped"  // 终态
)

// validTransitions 定义合法的状态转换
var validTransitions = map[State][]State{
	StateIdle:     {StateRunning},
	StateRunning:  {StateStopping, StateStopped},
	StateStopping: {StateStopped},
	StateStopped:  {},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Outcome 单个周期的结果
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure" // 合成或保存失败
	OutcomeError   Outcome = "error"   // 其他错误或 panic
)
