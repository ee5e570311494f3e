package cfg

type Cfg struct {
	// Storage
	DBPath       string
	TemplatesDir string
	ProductsFile string

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Feed generation
	RequireBrand bool

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
