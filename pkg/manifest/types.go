package manifest

import "fmt"

// Manifest is the root object that holds the entire configuration for one shardci run.
// It's populated by parsing the user's shardci.yaml file.
type Manifest struct {
	APIVersion string   `yaml:"apiVersion" validate:"required"`
	Kind       string   `yaml:"kind" validate:"required,eq=TestRun"`
	Metadata   Metadata `yaml:"metadata" validate:"required"`
	Spec       Spec     `yaml:"spec" validate:"required"`
}

// Metadata contains run-level metadata.
type Metadata struct {
	Name   string            `yaml:"name" validate:"required"`
	Team   string            `yaml:"team" validate:"required"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Spec contains the detailed specification for the test run.
type Spec struct {
	Targets     []string  `yaml:"targets" validate:"required,min=1,dive,required"`
	Parallelism int       `yaml:"parallelism" validate:"required,gt=0"`
	Image       Image     `yaml:"image" validate:"required"`
	Prepare     Prepare   `yaml:"prepare"`
	Execution   Execution `yaml:"execution"`
}

// Image identifies the pinned build image every test group runs against.
// The tag is derived from BuildID so that the environment preparer and the
// group runner always agree on which image to build versus run.
type Image struct {
	Registry   string `yaml:"registry" validate:"required"`
	Repository string `yaml:"repository" validate:"required"`
	TagPrefix  string `yaml:"tagPrefix" validate:"required"`
	BuildID    string `yaml:"buildId" validate:"required"`
	BaseImage  string `yaml:"baseImage"`
}

// Ref returns the fully qualified image reference for this run.
func (i Image) Ref() string {
	return fmt.Sprintf("%s/%s:%s", i.Registry, i.Repository, i.Tag())
}

// Tag returns the deterministic tag for this run's build identifier.
func (i Image) Tag() string {
	return fmt.Sprintf("%s_%s", i.TagPrefix, i.BuildID)
}

// Prepare configures the optional environment-preparation stage that builds
// the test image before any group runs.
type Prepare struct {
	Enabled    bool   `yaml:"enabled"`
	ContextDir string `yaml:"contextDir" validate:"required_with=Enabled"`
	Dockerfile string `yaml:"dockerfile"`
}

// Execution configures how the test tool is invoked inside each container.
type Execution struct {
	BazelConfig    string   `yaml:"bazelConfig"`
	PreRunCommands []string `yaml:"preRunCommands,omitempty"`
	Workdir        string   `yaml:"workdir"`
	ShmSizeGB      float64  `yaml:"shmSizeGb"`
}
