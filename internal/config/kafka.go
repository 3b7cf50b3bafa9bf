package config

import (
	"time"
)

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	MatchTopic   string        `yaml:"match_topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RequiredAcks int           `yaml:"required_acks"`
}

func loadKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Enabled:      getEnvAsBool("KAFKA_ENABLED", false),
		Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		MatchTopic:   getEnv("KAFKA_MATCH_TOPIC", "supportmatch.match-events"),
		BatchTimeout: getEnvAsDuration("KAFKA_BATCH_TIMEOUT", 50*time.Millisecond),
		WriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
		RequiredAcks: getEnvAsInt("KAFKA_REQUIRED_ACKS", 1),
	}
}
