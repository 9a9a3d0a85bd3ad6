package config

type Config struct {
	Target struct {
		Domain string `yaml:"domain"`
	} `yaml:"target"`

	Scan struct {
		Mode          string   `yaml:"mode"`
		Threads       int      `yaml:"threads"`
		RecordTypes   []string `yaml:"record_types"`
		WildcardCheck bool     `yaml:"wildcard_check"`
	} `yaml:"scan"`

	Resolvers struct {
		Servers         []string `yaml:"servers"`
		Timeout         int      `yaml:"timeout"`
		TransferTimeout int      `yaml:"transfer_timeout"`
	} `yaml:"resolvers"`

	RateLimit struct {
		Global int `yaml:"global"`
	} `yaml:"rate_limit"`

	Output struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"output"`

	// Runtime configuration (not from YAML)
	Verbose bool `yaml:"-"`
	NoColor bool `yaml:"-"`
}
