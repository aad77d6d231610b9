package strategy

// Counter 持仓时长计数器：开仓时装入最大持仓 K 线数，
// 每根 K 线递减，减到 0 强制平仓
type Counter struct {
	initial int
	value   int
}

func NewCounter(initial int) *Counter {
	return &Counter{initial: initial, value: initial}
}

func (c *Counter) Decrement() {
	c.value--
}

func (c *Counter) Value() int {
	return c.value
}

func (c *Counter) Reset() {
	c.value = c.initial
}

// Restore 直接设置当前值，用于从快照恢复
func (c *Counter) Restore(v int) {
	c.value = v
}
