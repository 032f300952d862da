package providers

import (
	"fmt"

	"github.com/gookit/validate"

	"xpd/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate runs the struct tag rules, then the cross-field rules the tag
// language cannot express. Returns the first failure; a bad config must
// stop startup.
func (v *CnfValidator) Validate() error {
	val := validate.Struct(v.conf)
	if !val.Validate() {
		return val.Errors
	}

	if v.conf.Storage.Driver == "sqlite" && v.conf.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite driver")
	}
	if v.conf.Accrual.XPMax > 0 && v.conf.Accrual.XPMax < v.conf.Accrual.XPBase {
		return fmt.Errorf("accrual.xpMax must not be below accrual.xpBase")
	}
	thresholds := v.conf.Accrual.LevelThresholds
	for i := range thresholds {
		if thresholds[i] <= 0 {
			return fmt.Errorf("accrual.levelThresholds must be positive")
		}
		if i > 0 && thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("accrual.levelThresholds must be strictly ascending")
		}
	}
	if v.conf.Cache.Enabled && v.conf.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	return nil
}
