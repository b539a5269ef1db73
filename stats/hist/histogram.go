package hist

import "math"

// HistogramBin 每个分箱的结构
type HistogramBin struct {
	From    float64
	To      float64
	Count   int
	Density float64 // Count / (total · width)
}

// SturgesBins is ceil(log2 n) + 1, at least 1.
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// Hist 按指定 bins 对 data 做分箱统计. Non-finite values are skipped; nil
// when nothing finite remains or bins <= 0.
func Hist(data []float64, bins int) []HistogramBin {
	if bins <= 0 {
		return nil
	}

	// 1. 求最小值最大值
	minV, maxV := math.Inf(1), math.Inf(-1)
	total := 0
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		total++
	}
	if total == 0 {
		return nil
	}

	// 避免 max == min 导致除0
	if maxV == minV {
		maxV = minV + 1e-9
	}

	// 2. 分箱宽度
	width := (maxV - minV) / float64(bins)

	// 3. 初始化 bins
	result := make([]HistogramBin, bins)
	for i := 0; i < bins; i++ {
		result[i] = HistogramBin{
			From: minV + float64(i)*width,
			To:   minV + float64(i+1)*width,
		}
	}

	// 4. 遍历数据并统计
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx := int(math.Floor((v - minV) / width))
		if idx >= bins { // v == maxV 落在最后一箱
			idx = bins - 1
		}
		result[idx].Count++
	}
	for i := range result {
		result[i].Density = float64(result[i].Count) / (float64(total) * width)
	}
	return result
}
