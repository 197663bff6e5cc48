package config

// IndexSpecificConfig 定义了单个 Elasticsearch 索引的特定配置，如分片和副本数。
// 本服务共使用三个索引（职位、热门搜索词、已保存集合），每个索引使用独立的该结构配置。
type IndexSpecificConfig struct {
	Name             string `mapstructure:"name" json:"name" yaml:"name"`                                     // 索引的名称
	NumberOfShards   int    `mapstructure:"numberOfShards" json:"numberOfShards" yaml:"numberOfShards"`       // 该索引的主分片数量
	NumberOfReplicas int    `mapstructure:"numberOfReplicas" json:"numberOfReplicas" yaml:"numberOfReplicas"` // 该索引的每个主分片的副本数量
}

// ESConfig 定义了 Elasticsearch 的连接和索引配置
type ESConfig struct {
	Addresses []string `mapstructure:"addresses" json:"addresses" yaml:"addresses"`
	Username  string   `mapstructure:"username" json:"username" yaml:"username"`
	Password  string   `mapstructure:"password" json:"password" yaml:"password"`

	// 职位主索引的配置
	JobsIndex IndexSpecificConfig `mapstructure:"jobsIndex" json:"jobsIndex" yaml:"jobsIndex"`

	// 热门搜索词索引的配置
	HotTermsIndex IndexSpecificConfig `mapstructure:"hotTermsIndex" json:"hotTermsIndex" yaml:"hotTermsIndex"`

	// 已保存搜索/模板/过滤器集合索引的配置
	CollectionsIndex IndexSpecificConfig `mapstructure:"collectionsIndex" json:"collectionsIndex" yaml:"collectionsIndex"`
}
