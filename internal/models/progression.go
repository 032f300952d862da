package models

import (
	"sort"

	"xpd/internal/structures"
)

// Progression holds the XP and level curves. All methods are pure; the
// curves are fixed at construction from config.
type Progression struct {
	xpBase     int64
	xpPerChars int64
	xpMax      int64
	levelStep  int64
	thresholds []int64 // ascending cumulative XP per level; empty = linear
}

func NewProgression(conf *structures.Config) *Progression {
	p := &Progression{
		xpBase:     conf.Accrual.XPBase,
		xpPerChars: conf.Accrual.XPPerChars,
		xpMax:      conf.Accrual.XPMax,
		levelStep:  conf.Accrual.LevelStep,
	}
	if p.xpPerChars <= 0 {
		p.xpPerChars = 20
	}
	if p.levelStep <= 0 {
		p.levelStep = 100
	}
	if len(conf.Accrual.LevelThresholds) > 0 {
		p.thresholds = append([]int64(nil), conf.Accrual.LevelThresholds...)
	}
	return p
}

// XPFor maps a content length to an XP delta. Empty messages are worth
// nothing; everything else earns the base plus a length bonus, capped.
func (p *Progression) XPFor(contentLength int) int64 {
	if contentLength <= 0 {
		return 0
	}
	xp := p.xpBase + int64(contentLength)/p.xpPerChars
	if p.xpMax > 0 && xp > p.xpMax {
		xp = p.xpMax
	}
	if xp < 0 {
		return 0
	}
	return xp
}

// LevelFor maps a total to a level. With a threshold table the level is the
// number of thresholds at or below the total; otherwise it is total/step.
func (p *Progression) LevelFor(totalXP int64) int {
	if totalXP < 0 {
		return 0
	}
	if len(p.thresholds) > 0 {
		// First threshold strictly above the total.
		return sort.Search(len(p.thresholds), func(i int) bool {
			return p.thresholds[i] > totalXP
		})
	}
	return int(totalXP / p.levelStep)
}

// ThresholdFor returns the minimal total XP that yields the given level.
func (p *Progression) ThresholdFor(level int) int64 {
	if level <= 0 {
		return 0
	}
	if len(p.thresholds) > 0 {
		if level > len(p.thresholds) {
			level = len(p.thresholds)
		}
		return p.thresholds[level-1]
	}
	return int64(level) * p.levelStep
}
