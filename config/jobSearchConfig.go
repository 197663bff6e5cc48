package config

import "github.com/Xushengqwer/go-common/config"

type JobSearchConfig struct {
	Server              config.ServerConfig `mapstructure:"server" json:"server" yaml:"server"`
	ZapConfig           config.ZapConfig    `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	TracerConfig        config.TracerConfig `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	KafkaConfig         KafkaConfig         `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	ElasticsearchConfig ESConfig            `mapstructure:"elasticsearchConfig" json:"elasticsearchConfig" yaml:"elasticsearchConfig"`
	SearchConfig        SearchConfig        `mapstructure:"searchConfig" json:"searchConfig" yaml:"searchConfig"`
}
