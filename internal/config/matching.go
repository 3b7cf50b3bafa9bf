package config

import (
	"fmt"
	"time"

	"supportmatch/internal/matching"
	"supportmatch/internal/utils"
)

type MatchingConfig struct {
	TopK                   int           `yaml:"top_k"`
	MinScore               float64       `yaml:"min_score"`
	WeightTagOverlap       float64       `yaml:"weight_tag_overlap"`
	WeightUrgency          float64       `yaml:"weight_urgency"`
	WeightProximity        float64       `yaml:"weight_proximity"`
	NeutralProximity       float64       `yaml:"neutral_proximity"`
	LockTTL                time.Duration `yaml:"lock_ttl"`
	LockWait               time.Duration `yaml:"lock_wait"`
	MaxRetries             int           `yaml:"max_retries"`
	PendingTTL             time.Duration `yaml:"pending_ttl"`
	SweepInterval          time.Duration `yaml:"sweep_interval"`
	AppointmentDefaultLead time.Duration `yaml:"appointment_default_lead"`
}

func loadMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		TopK:                   getEnvAsInt("MATCH_TOP_K", utils.DefaultTopK),
		MinScore:               getEnvAsFloat64("MATCH_MIN_SCORE", utils.DefaultMinScore),
		WeightTagOverlap:       getEnvAsFloat64("MATCH_WEIGHT_TAG_OVERLAP", 0.5),
		WeightUrgency:          getEnvAsFloat64("MATCH_WEIGHT_URGENCY", 0.2),
		WeightProximity:        getEnvAsFloat64("MATCH_WEIGHT_PROXIMITY", 0.3),
		NeutralProximity:       getEnvAsFloat64("MATCH_NEUTRAL_PROXIMITY", utils.DefaultNeutralProximity),
		LockTTL:                getEnvAsDuration("MATCH_LOCK_TTL", utils.DefaultMatchLockTTL),
		LockWait:               getEnvAsDuration("MATCH_LOCK_WAIT", utils.DefaultMatchLockWait),
		MaxRetries:             getEnvAsInt("MATCH_MAX_RETRIES", utils.DefaultMatchRetries),
		PendingTTL:             getEnvAsDuration("MATCH_PENDING_TTL", 0),
		SweepInterval:          getEnvAsDuration("MATCH_SWEEP_INTERVAL", utils.DefaultSweepInterval),
		AppointmentDefaultLead: getEnvAsDuration("APPOINTMENT_DEFAULT_LEAD_TIME", utils.DefaultAppointmentLead),
	}
}

// Scoring converts the matching settings into the scorer configuration.
func (c *MatchingConfig) Scoring() matching.Config {
	return matching.Config{
		Weights: matching.Weights{
			TagOverlap: c.WeightTagOverlap,
			Urgency:    c.WeightUrgency,
			Proximity:  c.WeightProximity,
		},
		NeutralProximity: c.NeutralProximity,
		TopK:             c.TopK,
		MinScore:         c.MinScore,
	}
}

func (c *MatchingConfig) Validate() error {
	if err := c.Scoring().Validate(); err != nil {
		return err
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.LockTTL <= 0 || c.LockWait < 0 {
		return fmt.Errorf("lock ttl must be positive and lock wait non-negative")
	}
	if c.PendingTTL < 0 {
		return fmt.Errorf("pending ttl must not be negative")
	}
	if c.PendingTTL > 0 && c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive when pending ttl is set")
	}
	return nil
}
