package run

import (
	"time"

	"github.com/DevTexRanger/alien-franchise-data/internal/config"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

// Observer 允许上层输出进度信息（交互终端时启用；非交互传 nil）。
//
// 约束：实现必须快进快出，不得阻塞阶段执行；回调在执行 goroutine 内同步调用。
type Observer interface {
	OnStart(eff config.EffectiveConfig)
	OnStageDone(res domain.StageResult, d time.Duration)
}
