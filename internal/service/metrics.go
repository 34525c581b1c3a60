package service

import (
	"math"
	"strings"
	"time"

	"twolaunch/internal/models"
)

// ComputeMetrics derives conversion rate and account age from stored counters.
// With no views the conversion rate is 0. A missing or unreadable createdAt,
// or one in the future, gives 0 days online.
func ComputeMetrics(views, orders int64, createdAt string, now time.Time) models.Metrics {
	metrics := models.Metrics{
		Views:  views,
		Orders: orders,
	}

	if views > 0 {
		rate := float64(orders) / float64(views) * 100
		metrics.ConversionRate = math.RoundToEven(rate*100) / 100
	}

	if strings.TrimSpace(createdAt) == "" {
		return metrics
	}
	created, err := models.ParseTimestamp(createdAt)
	if err != nil {
		return metrics
	}
	if days := int(now.Sub(created) / (24 * time.Hour)); days > 0 {
		metrics.DaysOnline = days
	}

	return metrics
}
