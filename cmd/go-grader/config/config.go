package config

import (
	"os"
	"runtime"

	"github.com/koding/multiconfig"

	"github.com/criyle/go-grader/assignment"
)

// Config defines go-grader configuration
type Config struct {
	// grading inputs
	DataPath       string `flagUsage:"path to the reference price dataset" default:"data/price_data.csv"`
	SrcDir         string `flagUsage:"directory holding the submitted source files" default:"submission"`
	OutputPath     string `flagUsage:"path to write the JSON grading summary" default:"grading_results.json"`
	AssignmentConf string `flagUsage:"optional YAML file overriding the assignment configuration"`
	RepoSlug       string `flagUsage:"repository slug used to derive the look-back period (defaults to GITHUB_REPOSITORY)"`

	// server config
	Serve         bool   `flagUsage:"run a grading server instead of grading once"`
	HTTPAddr      string `flagUsage:"specifies the http binding address" default:":5050"`
	MonitorAddr   string `flagUsage:"specifies the metrics binding address" default:":5052"`
	AuthToken     string `flagUsage:"bearer token auth for REST"`
	Parallelism   int    `flagUsage:"control the # of concurrent gradings (default equal to number of cpu)"`
	EnableMetrics bool   `flagUsage:"enable prometheus metrics endpoint"`
	EnableDebug   bool   `flagUsage:"enable debug endpoint"`

	// logger config
	Release bool `flagUsage:"release level of logs"`
	Silent  bool `flagUsage:"do not print logs"`

	// show version and exit
	Version bool `flagUsage:"show version and exit"`
}

// Load loads config from flag & environment variables
func (c *Config) Load() error {
	cl := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{
			Prefix:    "GRADER",
			CamelCase: true,
		},
		&multiconfig.FlagLoader{
			CamelCase: true,
			EnvPrefix: "GRADER",
		},
	)
	if err := cl.Load(c); err != nil {
		return err
	}
	if c.RepoSlug == "" {
		c.RepoSlug = assignment.SlugFromRepo(os.Getenv("GITHUB_REPOSITORY"))
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	return nil
}
