package processors

import (
	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/utils"
)

// UtilizationCalculator converts cycle counts into the fraction of
// theoretical machine time they consumed. Machine counts, cycle durations
// and the operating window all come from site configuration.
type UtilizationCalculator struct {
	business config.BusinessConfig
}

func NewUtilizationCalculator(business config.BusinessConfig) *UtilizationCalculator {
	return &UtilizationCalculator{business: business}
}

// MinutesUsed is the machine time consumed by the given cycle counts.
func (c *UtilizationCalculator) MinutesUsed(washUses, dryUses int) int {
	return washUses*c.business.WashCycleMinutes + dryUses*c.business.DryCycleMinutes
}

// MinutesAvailable is the theoretical machine time offered by the site over
// activeDays days of operation.
func (c *UtilizationCalculator) MinutesAvailable(activeDays int) int {
	hours := c.business.OperatingHoursPerDay()
	washerMinutes := c.business.WasherCount * hours * activeDays * 60
	dryerMinutes := c.business.DryerCount * hours * activeDays * 60
	return washerMinutes + dryerMinutes
}

// Percent returns utilization as a percentage, rounded to two decimals.
// A site with no available minutes yields 0, never a division by zero.
func (c *UtilizationCalculator) Percent(washUses, dryUses, activeDays int) float64 {
	available := c.MinutesAvailable(activeDays)
	if available <= 0 {
		return 0
	}
	return utils.Round2(100 * float64(c.MinutesUsed(washUses, dryUses)) / float64(available))
}
