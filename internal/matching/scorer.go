// Package matching holds the pure compatibility scoring between a report and a
// support service, and the deterministic ranking built on top of it.
package matching

import (
	"errors"
	"math"
	"strings"

	"supportmatch/internal/models"
	"supportmatch/internal/utils"

	"github.com/samber/lo"
)

// Weights scale the three sub-scores. They need not sum to one; Score
// normalizes by their total.
type Weights struct {
	TagOverlap float64 `json:"tag_overlap"`
	Urgency    float64 `json:"urgency"`
	Proximity  float64 `json:"proximity"`
}

// DefaultWeights favors tag overlap, then proximity, then urgency.
func DefaultWeights() Weights {
	return Weights{
		TagOverlap: 0.5,
		Urgency:    0.2,
		Proximity:  0.3,
	}
}

func (w Weights) total() float64 {
	return w.TagOverlap + w.Urgency + w.Proximity
}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	if w.TagOverlap < 0 || w.Urgency < 0 || w.Proximity < 0 {
		return errors.New("matching weights must not be negative")
	}
	if w.total() <= 0 {
		return errors.New("at least one matching weight must be positive")
	}
	return nil
}

// Config tunes scoring and ranking. Candidates scoring at or below MinScore are
// dropped and at most TopK survive.
type Config struct {
	Weights          Weights
	NeutralProximity float64
	TopK             int
	MinScore         float64
}

// DefaultConfig returns the weights and limits used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		NeutralProximity: utils.DefaultNeutralProximity,
		TopK:             utils.DefaultTopK,
		MinScore:         utils.DefaultMinScore,
	}
}

func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.TopK < 1 {
		return errors.New("top-k must be at least 1")
	}
	if c.NeutralProximity < 0 || c.NeutralProximity > 1 {
		return errors.New("neutral proximity must be within [0,1]")
	}
	if c.MinScore < 0 || c.MinScore >= 100 {
		return errors.New("minimum score must be within [0,100)")
	}
	return nil
}

// Result is the score of one candidate service for one report.
type Result struct {
	Service     *models.SupportService
	Score       float64
	Breakdown   models.ScoreBreakdown
	MatchedTags []string
}

// Scorer scores and ranks candidates under a fixed Config. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	config Config
}

// NewScorer does not validate config; call Config.Validate first.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

func (s *Scorer) Config() Config {
	return s.config
}

// Score is total and deterministic: it returns a value in [0,100] for any input.
// Zero tag overlap always yields zero regardless of the other sub-scores.
func (s *Scorer) Score(report *models.Report, service *models.SupportService) Result {
	overlap, matched := TagOverlap(report.RequiredServices, service.ServiceTypes)
	urgency := UrgencyAlignment(report.Urgency, service.Availability)
	proximity, distance := Proximity(report, service, s.config.NeutralProximity)

	result := Result{
		Service:     service,
		MatchedTags: matched,
		Breakdown: models.ScoreBreakdown{
			TagOverlap: overlap,
			Urgency:    urgency,
			Proximity:  proximity,
			DistanceKM: distance,
		},
	}

	if overlap == 0 {
		return result
	}

	w := s.config.Weights
	weighted := w.TagOverlap*overlap + w.Urgency*urgency + w.Proximity*proximity
	result.Score = clamp(round2(100*weighted/w.total()), 0, 100)
	return result
}

// NormalizeTags lowercases, trims and de-duplicates tags, dropping empty ones.
func NormalizeTags(tags []string) []string {
	normalized := lo.Map(tags, func(tag string, _ int) string {
		return strings.ToLower(strings.TrimSpace(tag))
	})
	return lo.Uniq(lo.Compact(normalized))
}

// TagOverlap returns the fraction of required tags the service offers, and the
// covered tags in required order.
func TagOverlap(required, offered []string) (float64, []string) {
	req := NormalizeTags(required)
	if len(req) == 0 {
		return 0, nil
	}

	matched := lo.Intersect(NormalizeTags(offered), req)
	return float64(len(matched)) / float64(len(req)), matched
}

// UrgencyAlignment favours high-availability services for high and critical reports.
func UrgencyAlignment(urgency models.Urgency, availability models.Availability) float64 {
	if urgency.IsUrgent() {
		switch availability {
		case models.AvailabilityAlways:
			return 1.0
		case models.AvailabilityAvailable:
			return 0.6
		case models.AvailabilityLimited:
			return 0.3
		case models.AvailabilityUnavailable:
			return 0.0
		default:
			return 0.5
		}
	}

	switch availability {
	case models.AvailabilityAlways, models.AvailabilityAvailable:
		return 1.0
	case models.AvailabilityLimited:
		return 0.8
	case models.AvailabilityUnavailable:
		return 0.4
	default:
		return 0.5
	}
}

// Proximity decays linearly from 1 at the service location to 0 at its coverage
// radius. Missing coordinates or radius yield the neutral value.
func Proximity(report *models.Report, service *models.SupportService, neutral float64) (float64, *float64) {
	lat, lng, ok := report.Coordinates()
	if !ok || !service.Location.Valid() {
		return neutral, nil
	}

	distance := round2(utils.CalculateDistance(lat, lng, service.Location.Latitude(), service.Location.Longitude()))
	if service.CoverageAreaRadius <= 0 {
		return neutral, &distance
	}
	if distance >= service.CoverageAreaRadius {
		return 0, &distance
	}

	return 1 - distance/service.CoverageAreaRadius, &distance
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}
