package breaker

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

// ErrInvalidOpenedAt 开启时间无法表示为有效时刻
var ErrInvalidOpenedAt = errors.New("invalid opened_at value")

// 秒级时间戳的上限，超过后无法转换为 time.Time 纳秒精度
const maxOpenedAtSeconds = float64(math.MaxInt64 / int64(time.Second))

// record 代表存储中的记录格式，opened_at 为 Unix 秒（浮点）
type record struct {
	Open     bool    `json:"open"`
	OpenedAt float64 `json:"opened_at"`
}

// encodeState 将状态编码为存储格式
func encodeState(s State) ([]byte, error) {
	r := record{Open: s.Open}
	if s.Open && !s.OpenedAt.IsZero() {
		r.OpenedAt = float64(s.OpenedAt.UnixNano()) / float64(time.Second)
	}
	return json.Marshal(r)
}

// decodeState 解析存储格式，任何无法识别的内容都返回错误，由调用方降级为关闭状态
// open 必须是 JSON 布尔值，opened_at 必须是数字，不做类型转换
func decodeState(data []byte) (State, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Closed(), err
	}
	if !r.Open {
		return Closed(), nil
	}

	openedAt := r.OpenedAt
	if math.IsNaN(openedAt) || math.IsInf(openedAt, 0) || openedAt < 0 || openedAt > maxOpenedAtSeconds {
		return Closed(), ErrInvalidOpenedAt
	}

	sec, frac := math.Modf(openedAt)
	return State{
		Open:     true,
		OpenedAt: time.Unix(int64(sec), int64(frac*float64(time.Second))),
	}, nil
}
