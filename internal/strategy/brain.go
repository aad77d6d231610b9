package strategy

// ThresholdBrain 确定性的参考决策网络：读观测向量里的一个分量
// (默认是归一化的 RSI)，低于 BuyBelow 给满置信度买入，高于
// SellAbove 给满置信度卖出，回到中轴附近时给平仓信号。
// 用来在没有进化网络的情况下跑通完整回测，也是测试的固定靶
type ThresholdBrain struct {
	Index     int
	BuyBelow  float64
	SellAbove float64
	CloseBand float64
}

// NewThresholdBrain 常用参数：观测第 Index 个分量，0.3 以下买入，
// 0.7 以上卖出，回到 0.5±0.05 平仓
func NewThresholdBrain(index int) *ThresholdBrain {
	return &ThresholdBrain{Index: index, BuyBelow: 0.3, SellAbove: 0.7, CloseBand: 0.05}
}

func (b *ThresholdBrain) FeedForward(inputs []float64) []float64 {
	out := []float64{0, 0, 0}
	if b.Index < 0 || b.Index >= len(inputs) {
		return out
	}
	v := inputs[b.Index]
	switch {
	case v < b.BuyBelow:
		out[0] = 1
	case v > b.SellAbove:
		out[1] = 1
	case v > 0.5-b.CloseBand && v < 0.5+b.CloseBand:
		out[2] = 1
	}
	return out
}
