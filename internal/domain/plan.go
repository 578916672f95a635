package domain

// GenerationParams are the category-specific knobs handed to a generator.
type GenerationParams struct {
	Title       string
	Description string
	WordCount   int
	Tone        string
	Language    string
	Keywords    []string
	Provider    string
}

// ExecutionPlan is derived from the category and the remaining budget at the
// time an opportunity is processed. It is never persisted.
type ExecutionPlan struct {
	Category   Category
	Provider   string
	Params     GenerationParams
	Outlet     string
	Confidence float64
}
